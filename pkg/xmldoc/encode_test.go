package xmldoc_test

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/criticaltool/emaildirect-go-client/pkg/xmldoc"
)

func TestMarshal_ColumnAdd(t *testing.T) {
	t.Parallel()

	node := Fields(
		F("ColumnName", "Age"),
		F("ColumnType", "int"),
		F("ColumnSize", 0),
	)
	out, err := MarshalString("DatabaseColumnAdd", node)
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
		`<DatabaseColumnAdd><ColumnName>Age</ColumnName><ColumnType>int</ColumnType><ColumnSize>0</ColumnSize></DatabaseColumnAdd>`, out)
}

func TestMarshal_Nested(t *testing.T) {
	t.Parallel()

	node := Fields(
		F("Name", "John"),
		F("Address", Fields(
			F("City", "Prague"),
			F("Geo", Fields(F("Lat", 50.08), F("Lon", 14.43))),
		)),
		F("Active", true),
	)
	out, err := MarshalString("Contact", node)
	require.NoError(t, err)
	assert.Equal(t, Declaration+"\n"+
		`<Contact><Name>John</Name><Address><City>Prague</City><Geo><Lat>50.08</Lat><Lon>14.43</Lon></Geo></Address><Active>true</Active></Contact>`, out)
}

func TestMarshal_Empty(t *testing.T) {
	t.Parallel()

	out, err := MarshalString("Root", Fields(F("Empty", nil), F("Children", Fields())))
	require.NoError(t, err)
	assert.Equal(t, Declaration+"\n"+`<Root><Empty></Empty><Children></Children></Root>`, out)
}

func TestMarshal_Escaping(t *testing.T) {
	t.Parallel()

	out, err := MarshalString("Root", Fields(F("Text", `Tom & "Jerry" <b>'s</b>`)))
	require.NoError(t, err)
	assert.Equal(t, Declaration+"\n"+`<Root><Text>Tom &amp; &#34;Jerry&#34; &lt;b&gt;&#39;s&lt;/b&gt;</Text></Root>`, out)
}

func TestMarshal_Indent(t *testing.T) {
	t.Parallel()

	out, err := MarshalString("Root", Fields(F("A", "1"), F("B", Fields(F("C", "2")))), WithIndent("", "  "))
	require.NoError(t, err)
	expected := `
<?xml version="1.0" encoding="UTF-8"?>
<Root>
  <A>1</A>
  <B>
    <C>2</C>
  </B>
</Root>`
	assert.Equal(t, strings.TrimLeft(expected, "\n"), out)
}

func TestMarshal_Deterministic(t *testing.T) {
	t.Parallel()

	node := Fields(F("B", "2"), F("A", Fields(F("Z", "x"), F("Y", "y"))))
	out1, err := Marshal("Root", node)
	require.NoError(t, err)
	out2, err := Marshal("Root", node)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestMarshal_LenientNames(t *testing.T) {
	t.Parallel()

	// Names are not validated by this package, an invalid name is passed to the encoder as it is
	out, err := MarshalString("Root", Fields(F("1st", "x")))
	if err == nil {
		assert.Equal(t, Declaration+"\n"+`<Root><1st>x</1st></Root>`, out)
	}

	// Empty name is refused by the encoder
	_, err = Marshal("Root", Fields(F("", "x")))
	assert.Error(t, err)
}

func TestMarshal_StrictNames(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Encode(&buf, "Root", Fields(F("Ok", Fields(F("1st value", "x")))), WithStrictNames())
	require.Error(t, err)
	assert.Equal(t, `invalid XML element name "1st value" at "Root/Ok"`, err.Error())
	var nameErr *NameError
	assert.ErrorAs(t, err, &nameErr)
	assert.Empty(t, buf.String(), "nothing is written")

	_, err = Marshal("bad root", Fields(), WithStrictNames())
	assert.Equal(t, `invalid XML element name "bad root"`, err.Error())

	out, err := MarshalString("Root", Fields(F("_x.y-z:w", "1"), F("Vlastnost", "2")), WithStrictNames())
	require.NoError(t, err)
	assert.Equal(t, Declaration+"\n"+`<Root><_x.y-z:w>1</_x.y-z:w><Vlastnost>2</Vlastnost></Root>`, out)
}

func TestValidName(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidName("ColumnName"))
	assert.True(t, ValidName("_private"))
	assert.True(t, ValidName("a1.b-c"))
	assert.True(t, ValidName("Číslo"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("1abc"))
	assert.False(t, ValidName("-abc"))
	assert.False(t, ValidName("a b"))
	assert.False(t, ValidName("a<b"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []Node{
		Fields(),
		Fields(F("A", "1")),
		Fields(F("A", "x & y"), F("B", Fields(F("C", "<c>"), F("D", Fields(F("E", "'e'")))))),
		Fields(F("List", Fields(F("Item", "1"), F("Item", "2"), F("Item", "3")))),
		Fields(F("Unicode", "Příliš žluťoučký kůň"), F("Spaces", "  padded  ")),
	}
	for _, node := range cases {
		out, err := Marshal("Root", node)
		require.NoError(t, err)
		root, parsed := parse(t, out)
		assert.Equal(t, "Root", root)
		assert.Equal(t, normalize(node), parsed, string(out))
	}
}

func TestFromOrderedMap(t *testing.T) {
	t.Parallel()

	m := orderedmap.FromPairs([]orderedmap.Pair{
		{Key: "ColumnName", Value: "Age"},
		{Key: "ColumnType", Value: "int"},
		{Key: "Nested", Value: orderedmap.FromPairs([]orderedmap.Pair{
			{Key: "Z", Value: 1},
			{Key: "A", Value: 2.5},
		})},
		{Key: "ColumnSize", Value: 0},
	})
	node, err := FromOrderedMap(m)
	require.NoError(t, err)
	assert.Equal(t, Fields(
		Field{Name: "ColumnName", Value: Leaf("Age")},
		Field{Name: "ColumnType", Value: Leaf("int")},
		Field{Name: "Nested", Value: Fields(
			Field{Name: "Z", Value: Leaf("1")},
			Field{Name: "A", Value: Leaf("2.5")},
		)},
		Field{Name: "ColumnSize", Value: Leaf("0")},
	), node)
}

func TestFromMap(t *testing.T) {
	t.Parallel()

	node, err := FromMap(map[string]any{"b": "2", "a": map[string]any{"d": 4, "c": nil}})
	require.NoError(t, err)
	assert.Equal(t, Fields(
		Field{Name: "a", Value: Fields(
			Field{Name: "c", Value: Leaf("")},
			Field{Name: "d", Value: Leaf("4")},
		)},
		Field{Name: "b", Value: Leaf("2")},
	), node)

	v, found := node.Get("b")
	assert.True(t, found)
	assert.Equal(t, Leaf("2"), v)
	_, found = node.Get("missing")
	assert.False(t, found)
	assert.Equal(t, 2, node.Len())
}

func TestValueOf_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := NewField("Items", []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "Items": cannot convert []string to text`)

	_, err = NewField("Map", map[string]int{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `map type map[string]int is not supported`)

	assert.Panics(t, func() {
		F("Items", []int{1})
	})
}

// parse reads the document back into a Node, leaf values are kept as Leaf.
func parse(t *testing.T, doc []byte) (string, Node) {
	t.Helper()

	dec := xml.NewDecoder(bytes.NewReader(doc))
	type frame struct {
		name     string
		node     Node
		text     strings.Builder
		hasChild bool
	}
	var stack []*frame
	var root string
	var result Node
	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch v := token.(type) {
		case xml.StartElement:
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &frame{name: v.Name.Local, node: Node{}})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(v)
			}
		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			var value Value
			if top.hasChild {
				value = top.node
			} else {
				value = Leaf(top.text.String())
			}
			if len(stack) == 0 {
				root = top.name
				if n, ok := value.(Node); ok {
					result = n
				} else {
					result = Node{}
				}
			} else {
				parent := stack[len(stack)-1]
				parent.node = append(parent.node, Field{Name: top.name, Value: value})
			}
		}
	}
	return root, result
}

// normalize converts empty nested nodes to empty leaves, they cannot be distinguished in the XML.
func normalize(node Node) Node {
	out := Node{}
	for _, f := range node {
		if nested, ok := f.Value.(Node); ok {
			if len(nested) == 0 {
				out = append(out, Field{Name: f.Name, Value: Leaf("")})
			} else {
				out = append(out, Field{Name: f.Name, Value: normalize(nested)})
			}
		} else {
			out = append(out, f)
		}
	}
	return out
}
