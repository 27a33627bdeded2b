package smartyaml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDoc(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := MustNew().LoadString(context.Background(), text)
	require.NoError(t, err)
	return doc
}

func TestDocument_Encoding(t *testing.T) {
	doc := loadDoc(t, "zeta: 1\nalpha:\n  b: [1, two]\n  a: null\nmid: !if(SMARTYAML_UNSET_FLAG, x)\nlast: true\n")

	assert.Equal(t, []string{"zeta", "alpha", "last"}, doc.Keys())

	js, err := doc.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":{"b":[1,"two"],"a":null},"last":true}`, string(js))

	indented, err := doc.JSONIndent("  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"b\": [\n      1,\n      \"two\"\n    ],\n    \"a\": null\n  },\n  \"last\": true\n}", string(indented))

	y, err := doc.YAML()
	require.NoError(t, err)
	out := string(y)
	assert.Less(t, strings.Index(out, "zeta"), strings.Index(out, "alpha"))
	assert.Less(t, strings.Index(out, "alpha"), strings.Index(out, "last"))

	back := loadDoc(t, out)
	assert.Equal(t, doc.Value(), back.Value())
}

func TestDocument_Accessors(t *testing.T) {
	doc := loadDoc(t, "a: 1\nb: {c: x}\n")

	v, ok := doc.Get("b")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"c": "x"}, v)

	_, ok = doc.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, InMemoryOrigin, doc.Origin())

	seq := loadDoc(t, "- 1\n- 2\n")
	assert.Nil(t, seq.Map())
	assert.Nil(t, seq.Keys())
	assert.Equal(t, []any{1, 2}, seq.Value())
	_, ok = seq.Get("a")
	assert.False(t, ok)
}
