package internal

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Position is a 1-based source location reported by the parser.
type Position struct {
	Line   int
	Column int
}

// Node is an element of a document tree.
// The set of implementations is closed: *Scalar, *Sequence, *Mapping,
// *Tagged, *Deferred and the Absent marker.
type Node interface {
	Position() Position
	node()
}

// Scalar holds a string, int, float64, bool or nil value.
type Scalar struct {
	Value any
	Pos   Position
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
	Pos   Position
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Node
}

// Mapping is an ordered set of entries with unique keys.
type Mapping struct {
	Entries []Entry
	Pos     Position
}

// Tagged is an unresolved directive call.
// Tag is the raw tag token without its leading "!" and Body the node it was attached to.
type Tagged struct {
	Tag  string
	Body Node
	Pos  Position

	// Inherited is set while overlaying a template: the parent value at the same key.
	Inherited Node
}

// Deferred is an interpolation that must be completed once every variable is known.
type Deferred struct {
	Template string
	Origin   string
	Pos      Position
}

type absentNode struct{}

// Absent marks a value that must be omitted from its enclosing container.
var Absent Node = absentNode{}

func (n *Scalar) Position() Position   { return n.Pos }
func (n *Sequence) Position() Position { return n.Pos }
func (n *Mapping) Position() Position  { return n.Pos }
func (n *Tagged) Position() Position   { return n.Pos }
func (n *Deferred) Position() Position { return n.Pos }
func (absentNode) Position() Position  { return Position{} }

func (*Scalar) node()   {}
func (*Sequence) node() {}
func (*Mapping) node()  {}
func (*Tagged) node()   {}
func (*Deferred) node() {}
func (absentNode) node() {}

// IsAbsent reports whether n is the omission marker.
func IsAbsent(n Node) bool {
	_, ok := n.(absentNode)
	return ok
}

// NewString creates a string scalar.
func NewString(s string, pos Position) *Scalar {
	return &Scalar{Value: s, Pos: pos}
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key, or appends a new entry.
func (m *Mapping) Set(key string, value Node) {
	for i, e := range m.Entries {
		if e.Key == key {
			m.Entries[i].Value = value
			return
		}
	}
	m.Entries = append(m.Entries, Entry{Key: key, Value: value})
}

// Without returns a shallow copy of m with the given keys removed.
func (m *Mapping) Without(keys ...string) *Mapping {
	out := &Mapping{Pos: m.Pos, Entries: make([]Entry, 0, len(m.Entries))}
	for _, e := range m.Entries {
		skip := false
		for _, k := range keys {
			if e.Key == k {
				skip = true
				break
			}
		}
		if !skip {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Keys returns the keys in document order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}

// ScalarString renders a scalar value as interpolation text.
func ScalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// StringValue returns the string form of a scalar node.
func StringValue(n Node) (string, bool) {
	s, ok := n.(*Scalar)
	if !ok {
		return "", false
	}
	return ScalarString(s.Value), true
}

// ToValue converts a resolved tree into plain Go values:
// map[string]any, []any, and scalar values. Absent entries are dropped and
// a Deferred node renders as its template text.
func ToValue(n Node) any {
	switch v := n.(type) {
	case *Scalar:
		return v.Value
	case *Sequence:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			if IsAbsent(item) {
				continue
			}
			out = append(out, ToValue(item))
		}
		return out
	case *Mapping:
		out := make(map[string]any, len(v.Entries))
		for _, e := range v.Entries {
			if IsAbsent(e.Value) {
				continue
			}
			out[e.Key] = ToValue(e.Value)
		}
		return out
	case *Deferred:
		return v.Template
	case *Tagged:
		return YAMLTagPrefixLocal + v.Tag
	default:
		return nil
	}
}

// FromValue converts plain Go values into a tree. Map keys are sorted so the
// result is deterministic.
func FromValue(v any) Node {
	switch val := v.(type) {
	case Node:
		return val
	case nil:
		return &Scalar{}
	case string:
		return &Scalar{Value: val}
	case bool:
		return &Scalar{Value: val}
	case int:
		return &Scalar{Value: val}
	case int8:
		return &Scalar{Value: int(val)}
	case int16:
		return &Scalar{Value: int(val)}
	case int32:
		return &Scalar{Value: int(val)}
	case int64:
		return &Scalar{Value: normalizeInt64(val)}
	case uint:
		return &Scalar{Value: normalizeUint64(uint64(val))}
	case uint8:
		return &Scalar{Value: int(val)}
	case uint16:
		return &Scalar{Value: int(val)}
	case uint32:
		return &Scalar{Value: int(val)}
	case uint64:
		return &Scalar{Value: normalizeUint64(val)}
	case float32:
		return &Scalar{Value: float64(val)}
	case float64:
		return &Scalar{Value: val}
	case []byte:
		return &Scalar{Value: string(val)}
	case []any:
		seq := &Sequence{Items: make([]Node, 0, len(val))}
		for _, item := range val {
			seq.Items = append(seq.Items, FromValue(item))
		}
		return seq
	case []string:
		seq := &Sequence{Items: make([]Node, 0, len(val))}
		for _, item := range val {
			seq.Items = append(seq.Items, &Scalar{Value: item})
		}
		return seq
	case []map[string]any:
		seq := &Sequence{Items: make([]Node, 0, len(val))}
		for _, item := range val {
			seq.Items = append(seq.Items, FromValue(item))
		}
		return seq
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := &Mapping{Entries: make([]Entry, 0, len(keys))}
		for _, k := range keys {
			m.Entries = append(m.Entries, Entry{Key: k, Value: FromValue(val[k])})
		}
		return m
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := &Mapping{Entries: make([]Entry, 0, len(keys))}
		for _, k := range keys {
			m.Entries = append(m.Entries, Entry{Key: k, Value: &Scalar{Value: val[k]}})
		}
		return m
	case map[any]any:
		conv := make(map[string]any, len(val))
		for k, item := range val {
			conv[ScalarString(k)] = item
		}
		return FromValue(conv)
	default:
		return &Scalar{Value: fmt.Sprintf("%v", val)}
	}
}

func normalizeInt64(v int64) any {
	if v >= math.MinInt && v <= math.MaxInt {
		return int(v)
	}
	return v
}

func normalizeUint64(v uint64) any {
	if v <= math.MaxInt {
		return int(v)
	}
	return float64(v)
}

// Equal reports deep structural equality of two trees, ignoring positions.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case *Scalar:
		bv, ok := b.(*Scalar)
		return ok && av.Value == bv.Value
	case *Sequence:
		bv, ok := b.(*Sequence)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for _, e := range av.Entries {
			other, found := bv.Get(e.Key)
			if !found || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case *Deferred:
		bv, ok := b.(*Deferred)
		return ok && av.Template == bv.Template
	case *Tagged:
		bv, ok := b.(*Tagged)
		return ok && av.Tag == bv.Tag && Equal(av.Body, bv.Body)
	case absentNode:
		return IsAbsent(b)
	case nil:
		return b == nil
	}
	return false
}

// ContainsPlaceholder reports whether s holds an opening placeholder delimiter.
func ContainsPlaceholder(s string) bool {
	return strings.Contains(s, PlaceholderOpen)
}
