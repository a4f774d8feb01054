// Package xmldoc serializes an ordered tree of named values to an XML document.
//
// A tree is built from two kinds of Value:
//   - Leaf is a text value, it is written as an element with escaped character data.
//   - Node is an ordered list of named fields, it is written as an element containing one child per field.
//
// Names are used as element names verbatim. No attributes are produced.
// Use Marshal or Encode to write a document, see WithStrictNames to validate names.
package xmldoc

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/cast"
)

// Value is a Leaf or a Node.
type Value interface {
	isValue()
}

// Leaf is a text value.
type Leaf string

// Node is an ordered list of fields.
type Node []Field

// Field is a named Value.
type Field struct {
	Name  string
	Value Value
}

func (Leaf) isValue() {}

func (Node) isValue() {}

// F creates a Field from a name and a value.
// The value can be a Value, *orderedmap.OrderedMap, map[string]any or a scalar.
// It panics if the value cannot be converted, use NewField to get an error.
func F(name string, value any) Field {
	f, err := NewField(name, value)
	if err != nil {
		panic(err)
	}
	return f
}

// NewField creates a Field from a name and a value, see ValueOf.
func NewField(name string, value any) (Field, error) {
	v, err := ValueOf(value)
	if err != nil {
		return Field{}, fmt.Errorf(`field "%s": %w`, name, err)
	}
	return Field{Name: name, Value: v}, nil
}

// Fields creates a Node from fields.
func Fields(fields ...Field) Node {
	return Node(fields)
}

// Len returns number of fields.
func (n Node) Len() int {
	return len(n)
}

// Get returns value of the first field with the name.
func (n Node) Get(name string) (Value, bool) {
	for _, f := range n {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ValueOf converts a Go value to a Value.
//
// Nested *orderedmap.OrderedMap keeps the insertion order of its keys.
// Nested map[string]any keys are sorted, Go maps have no order.
// Scalars are converted to a Leaf by the cast.ToStringE function, nil is an empty Leaf.
func ValueOf(value any) (Value, error) {
	switch v := value.(type) {
	case Value:
		return v, nil
	case nil:
		return Leaf(""), nil
	case *orderedmap.OrderedMap:
		return FromOrderedMap(v)
	case orderedmap.OrderedMap:
		return FromOrderedMap(&v)
	case map[string]any:
		return FromMap(v)
	}

	if reflect.TypeOf(value).Kind() == reflect.Map {
		return nil, fmt.Errorf(`map type %T is not supported, use map[string]any`, value)
	}

	str, err := cast.ToStringE(value)
	if err != nil {
		return nil, fmt.Errorf(`cannot convert %T to text: %w`, value, err)
	}
	return Leaf(str), nil
}

// FromOrderedMap converts an ordered map to a Node, the order of keys is kept.
func FromOrderedMap(m *orderedmap.OrderedMap) (Node, error) {
	if m == nil {
		return Node{}, nil
	}
	out := make(Node, 0, len(m.Keys()))
	for _, key := range m.Keys() {
		value, _ := m.Get(key)
		f, err := NewField(key, value)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// FromMap converts a map to a Node, keys are sorted alphabetically.
func FromMap(m map[string]any) (Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Node, 0, len(keys))
	for _, key := range keys {
		f, err := NewField(key, m[key])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
