package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromValue(t *testing.T) {
	t.Run("map keys sorted", func(t *testing.T) {
		n := FromValue(map[string]any{"b": 1, "a": 2, "c": 3})
		m, ok := n.(*Mapping)
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	})

	t.Run("integers normalised", func(t *testing.T) {
		assert.Equal(t, 7, FromValue(int64(7)).(*Scalar).Value)
		assert.Equal(t, 7, FromValue(uint8(7)).(*Scalar).Value)
		assert.Equal(t, float64(math.MaxUint64), FromValue(uint64(math.MaxUint64)).(*Scalar).Value)
		assert.Equal(t, 1.5, FromValue(float32(1.5)).(*Scalar).Value)
	})

	t.Run("nested", func(t *testing.T) {
		in := map[string]any{"list": []any{1, "two", map[string]any{"k": true}}, "nil": nil}
		assert.Equal(t, in, ToValue(FromValue(in)))
	})

	t.Run("map any keys", func(t *testing.T) {
		n := FromValue(map[any]any{1: "one"})
		assert.Equal(t, map[string]any{"1": "one"}, ToValue(n))
	})

	t.Run("node passthrough", func(t *testing.T) {
		s := NewString("x", Position{})
		assert.Same(t, s, FromValue(s))
	})
}

func TestToValue_DropsAbsent(t *testing.T) {
	n := &Mapping{Entries: []Entry{
		{Key: "keep", Value: &Scalar{Value: 1}},
		{Key: "drop", Value: Absent},
		{Key: "list", Value: &Sequence{Items: []Node{Absent, &Scalar{Value: 2}}}},
	}}

	assert.Equal(t, map[string]any{"keep": 1, "list": []any{2}}, ToValue(n))
}

func TestMapping_SetGetWithout(t *testing.T) {
	m := &Mapping{}
	m.Set("a", &Scalar{Value: 1})
	m.Set("b", &Scalar{Value: 2})
	m.Set("a", &Scalar{Value: 3})

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, ToValue(v))

	w := m.Without("a")
	assert.Equal(t, []string{"b"}, w.Keys())
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestEqual(t *testing.T) {
	a := FromValue(map[string]any{"x": []any{1, 2}, "y": "s"})
	b := FromValue(map[string]any{"y": "s", "x": []any{1, 2}})
	c := FromValue(map[string]any{"x": []any{2, 1}, "y": "s"})

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.True(t, Equal(Absent, Absent))
	assert.False(t, Equal(&Scalar{Value: 1}, &Scalar{Value: "1"}))
}

func TestScalarString(t *testing.T) {
	assert.Equal(t, "", ScalarString(nil))
	assert.Equal(t, "42", ScalarString(42))
	assert.Equal(t, "1.5", ScalarString(1.5))
	assert.Equal(t, "true", ScalarString(true))
}
