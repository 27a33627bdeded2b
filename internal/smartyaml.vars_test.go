package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strVars(kv map[string]string) map[string]Node {
	out := make(map[string]Node, len(kv))
	for k, v := range kv {
		out[k] = NewString(v, Position{})
	}
	return out
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b.c"}, Placeholders("{{a}}-{{ b.c }}-{{a}}"))
	assert.Nil(t, Placeholders("no vars {here}"))
	assert.Nil(t, Placeholders("{{1bad}}"))
}

func TestMergeTiers(t *testing.T) {
	caller := strVars(map[string]string{"a": "caller"})
	doc := strVars(map[string]string{"a": "doc", "b": "doc"})
	acc := strVars(map[string]string{"a": "acc", "b": "acc", "c": "acc"})

	flat := MergeTiers(caller, doc, acc)

	got := map[string]any{}
	for k, v := range flat {
		got[k] = ToValue(v)
	}
	assert.Equal(t, map[string]any{"a": "caller", "b": "doc", "c": "acc"}, got)
}

func TestSubstitute(t *testing.T) {
	vars := map[string]Node{
		"host": NewString("db", Position{}),
		"port": &Scalar{Value: 5432},
		"list": &Sequence{},
	}

	t.Run("all known", func(t *testing.T) {
		out, err := Substitute("{{host}}:{{ port }}", vars, true)
		require.NoError(t, err)
		assert.Equal(t, "db:5432", out)
	})

	t.Run("unknown kept when lenient", func(t *testing.T) {
		out, err := Substitute("{{host}}/{{missing}}", vars, false)
		require.NoError(t, err)
		assert.Equal(t, "db/{{missing}}", out)
	})

	t.Run("unknown fails when strict", func(t *testing.T) {
		_, err := Substitute("{{missing}}", vars, true)
		require.ErrorIs(t, err, ErrVariableNotFound)
		e, _ := AsError(err)
		assert.Equal(t, "missing", e.Detail)
	})

	t.Run("non scalar", func(t *testing.T) {
		_, err := Substitute("{{list}}", vars, false)
		assert.ErrorIs(t, err, ErrTypeConflict)
	})

	t.Run("single pass", func(t *testing.T) {
		out, err := Substitute("{{a}}", strVars(map[string]string{"a": "{{b}}", "b": "x"}), false)
		require.NoError(t, err)
		assert.Equal(t, "{{b}}", out)
	})
}

func TestExpandSelfReferences(t *testing.T) {
	t.Run("chain converges", func(t *testing.T) {
		flat := strVars(map[string]string{
			"url":  "{{scheme}}://{{host}}",
			"host": "{{name}}.example.com",
			"name": "api",
		})
		flat["scheme"] = NewString("https", Position{})

		out, err := ExpandSelfReferences(flat, 10)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", ToValue(out["url"]))
		assert.Equal(t, "api.example.com", ToValue(out["host"]))
	})

	t.Run("unknown reference is left for later", func(t *testing.T) {
		out, err := ExpandSelfReferences(strVars(map[string]string{"a": "{{zzz}}"}), 10)
		require.NoError(t, err)
		assert.Equal(t, "{{zzz}}", ToValue(out["a"]))
	})

	t.Run("self reference", func(t *testing.T) {
		_, err := ExpandSelfReferences(strVars(map[string]string{"a": "{{a}}"}), 10)
		assert.ErrorIs(t, err, ErrRecursionLimit)
	})

	t.Run("mutual reference", func(t *testing.T) {
		_, err := ExpandSelfReferences(strVars(map[string]string{"a": "{{b}}", "b": "{{a}}"}), 10)
		assert.ErrorIs(t, err, ErrRecursionLimit)
	})

	t.Run("growth never converges", func(t *testing.T) {
		_, err := ExpandSelfReferences(strVars(map[string]string{"a": "x{{a}}"}), 5)
		assert.ErrorIs(t, err, ErrRecursionLimit)
	})

	t.Run("deferred values become text", func(t *testing.T) {
		flat := map[string]Node{
			"a": &Deferred{Template: "{{b}}!"},
			"b": NewString("hi", Position{}),
		}
		out, err := ExpandSelfReferences(flat, 0)
		require.NoError(t, err)
		assert.Equal(t, "hi!", ToValue(out["a"]))
	})

	t.Run("input not modified", func(t *testing.T) {
		flat := strVars(map[string]string{"a": "{{b}}", "b": "x"})
		_, err := ExpandSelfReferences(flat, 10)
		require.NoError(t, err)
		assert.Equal(t, "{{b}}", ToValue(flat["a"]))
	})
}

func TestResolveDeferred(t *testing.T) {
	tree := &Mapping{Entries: []Entry{
		{Key: "url", Value: &Deferred{Template: "http://{{host}}", Origin: "a.yaml", Pos: Position{Line: 2, Column: 6}}},
		{Key: "list", Value: &Sequence{Items: []Node{&Deferred{Template: "{{host}}"}}}},
	}}
	assert.True(t, HasDeferred(tree))

	out, err := ResolveDeferred(tree, strVars(map[string]string{"host": "h"}))
	require.NoError(t, err)
	assert.False(t, HasDeferred(out))
	assert.Equal(t, map[string]any{"url": "http://h", "list": []any{"h"}}, ToValue(out))

	_, err = ResolveDeferred(tree, nil)
	require.ErrorIs(t, err, ErrVariableNotFound)
	e, _ := AsError(err)
	assert.Equal(t, "a.yaml", e.Path)
	assert.Equal(t, DirectiveExpand, e.Directive)
	assert.Equal(t, "http://{{host}}", e.Args)
	assert.Equal(t, 2, e.Pos.Line)
}
