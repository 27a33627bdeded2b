package smartyaml

import (
	"bytes"

	"github.com/apuigsech/smartyaml/internal"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document is a fully resolved document.
type Document struct {
	root   internal.Node
	origin string
}

// Origin returns the canonical path of the root document, or "<string>" for
// documents loaded from text.
func (d *Document) Origin() string {
	return d.origin
}

// Value returns the document as plain Go values: map[string]any, []any,
// string, bool, int, float64 or nil.
func (d *Document) Value() any {
	return internal.ToValue(d.root)
}

// Map returns the document as a map, or nil when the top level is not a mapping.
func (d *Document) Map() map[string]any {
	m, _ := d.Value().(map[string]any)
	return m
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	if m, ok := d.root.(*internal.Mapping); ok {
		return m.Keys()
	}
	return nil
}

// Get returns the top-level value stored under key.
func (d *Document) Get(key string) (any, bool) {
	m, ok := d.root.(*internal.Mapping)
	if !ok {
		return nil, false
	}
	n, found := m.Get(key)
	if !found {
		return nil, false
	}
	return internal.ToValue(n), true
}

// YAML encodes the document, preserving key order.
func (d *Document) YAML() ([]byte, error) {
	out, err := yaml.Marshal(internal.ToYAMLNode(d.root))
	if err != nil {
		return nil, NewEncodeError(err)
	}
	return out, nil
}

// JSON encodes the document compactly, preserving key order.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.root); err != nil {
		return nil, NewEncodeError(err)
	}
	return buf.Bytes(), nil
}

// JSONIndent encodes the document with the given indent, preserving key order.
func (d *Document) JSONIndent(indent string) ([]byte, error) {
	compact, err := d.JSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", indent); err != nil {
		return nil, NewEncodeError(err)
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n internal.Node) error {
	switch v := n.(type) {
	case *internal.Mapping:
		buf.WriteByte('{')
		first := true
		for _, e := range v.Entries {
			if internal.IsAbsent(e.Value) {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case *internal.Sequence:
		buf.WriteByte('[')
		first := true
		for _, item := range v.Items {
			if internal.IsAbsent(item) {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		encoded, err := json.Marshal(internal.ToValue(n))
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}
