package xmldoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/umisama/go-regexpcache"
)

// Declaration is written at the beginning of each document.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// namePattern is a simplified XML Name production: a letter, "_" or ":" followed by letters, digits, ".", "-", "_" or ":".
const namePattern = `^[\p{L}_:][\p{L}\p{N}\p{Mn}\p{Mc}._:\-\x{B7}]*$`

// NameError is returned in the strict mode, if a name is not a valid XML element name.
type NameError struct {
	Path []string
	Name string
}

func (e *NameError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf(`invalid XML element name "%s"`, e.Name)
	}
	return fmt.Sprintf(`invalid XML element name "%s" at "%s"`, e.Name, strings.Join(e.Path, "/"))
}

type config struct {
	strictNames bool
	prefix      string
	indent      string
}

// Option for Marshal and Encode.
type Option func(c *config)

// WithStrictNames enables validation of element names.
// The document is not written at all if a name is invalid.
func WithStrictNames() Option {
	return func(c *config) {
		c.strictNames = true
	}
}

// WithIndent enables indentation of the elements.
func WithIndent(prefix, indent string) Option {
	return func(c *config) {
		c.prefix = prefix
		c.indent = indent
	}
}

// ValidName returns true if the name is a valid XML element name.
func ValidName(name string) bool {
	return regexpcache.MustCompile(namePattern).MatchString(name)
}

// Validate checks the root name and all nested names.
func Validate(root string, node Node) error {
	if !ValidName(root) {
		return &NameError{Name: root}
	}
	return validateNode([]string{root}, node)
}

func validateNode(path []string, node Node) error {
	for _, f := range node {
		if !ValidName(f.Name) {
			return &NameError{Path: path, Name: f.Name}
		}
		if nested, ok := f.Value.(Node); ok {
			if err := validateNode(append(path, f.Name), nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// Marshal returns the XML document with the root element.
func Marshal(root string, node Node, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root, node, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalString is a string variant of the Marshal function.
func MarshalString(root string, node Node, opts ...Option) (string, error) {
	out, err := Marshal(root, node, opts...)
	return string(out), err
}

// Encode writes the XML document with the root element to the writer.
func Encode(w io.Writer, root string, node Node, opts ...Option) error {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.strictNames {
		if err := Validate(root, node); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, Declaration+"\n"); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	if cfg.indent != "" || cfg.prefix != "" {
		enc.Indent(cfg.prefix, cfg.indent)
	}
	if err := writeElement(enc, root, node); err != nil {
		return fmt.Errorf(`cannot encode XML document "%s": %w`, root, err)
	}
	return enc.Flush()
}

func writeElement(enc *xml.Encoder, name string, value Value) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch v := value.(type) {
	case Node:
		for _, f := range v {
			if err := writeElement(enc, f.Name, f.Value); err != nil {
				return err
			}
		}
	case Leaf:
		if v != "" {
			if err := enc.EncodeToken(xml.CharData(v)); err != nil {
				return err
			}
		}
	case nil:
		// empty element
	default:
		return fmt.Errorf(`unexpected value type %T`, value)
	}

	return enc.EncodeToken(start.End())
}
