package internal

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_Scalars(t *testing.T) {
	n, err := Parse([]byte("s: text\ni: 42\nf: 1.5\nb: true\nn: null\nq: \"42\"\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"s": "text",
		"i": 42,
		"f": 1.5,
		"b": true,
		"n": nil,
		"q": "42",
	}, ToValue(n))
}

func TestParse_KeyOrderAndPositions(t *testing.T) {
	n, err := Parse([]byte("z: 1\na: 2\nm: 3\n"))
	require.NoError(t, err)

	m := n.(*Mapping)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, Position{Line: 2, Column: 4}, v.Position())
}

func TestParse_LocalTags(t *testing.T) {
	n, err := Parse([]byte("a: !env(HOME)\nb: !base64 hello\nc: !concat [[1], [2]]\nd: !!str 5\n"))
	require.NoError(t, err)
	m := n.(*Mapping)

	a, _ := m.Get("a")
	tagged, ok := a.(*Tagged)
	require.True(t, ok)
	assert.Equal(t, "env(HOME)", tagged.Tag)

	b, _ := m.Get("b")
	tagged, ok = b.(*Tagged)
	require.True(t, ok)
	assert.Equal(t, "base64", tagged.Tag)
	assert.Equal(t, "hello", ToValue(tagged.Body))

	c, _ := m.Get("c")
	tagged, ok = c.(*Tagged)
	require.True(t, ok)
	_, isSeq := tagged.Body.(*Sequence)
	assert.True(t, isSeq)

	d, _ := m.Get("d")
	assert.Equal(t, "5", ToValue(d))
}

func TestParse_Aliases(t *testing.T) {
	n, err := Parse([]byte("base: &b {x: 1}\ncopy: *b\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"x": 1}, ToValue(n).(map[string]any)["copy"])
}

// nestedAliases builds levels of sequences, each holding fanout aliases of
// the previous level.
func nestedAliases(levels, fanout int) []byte {
	var b strings.Builder
	b.WriteString("l0: &a0 [" + strings.TrimSuffix(strings.Repeat("x, ", fanout), ", ") + "]\n")
	for i := 1; i <= levels; i++ {
		ref := "*a" + strconv.Itoa(i-1)
		items := strings.TrimSuffix(strings.Repeat(ref+", ", fanout), ", ")
		b.WriteString("l" + strconv.Itoa(i) + ": &a" + strconv.Itoa(i) + " [" + items + "]\n")
	}
	return []byte(b.String())
}

func TestParse_AliasExpansionLimit(t *testing.T) {
	n, err := Parse(nestedAliases(3, 10))
	require.NoError(t, err)
	top, ok := ToValue(n).(map[string]any)["l3"].([]any)
	require.True(t, ok)
	assert.Len(t, top, 10)

	doc := nestedAliases(6, 10)
	require.Less(t, len(doc), 1024)
	_, err = Parse(doc)
	require.ErrorIs(t, err, ErrResourceLimit)
	assert.Contains(t, err.Error(), ErrMsgAliasExpansion)
}

func TestParse_EmptyAndInvalid(t *testing.T) {
	n, err := Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, ToValue(n))

	_, err = Parse([]byte("a: [unclosed"))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseSource_TOML(t *testing.T) {
	n, err := ParseSource("conf.toml", []byte("name = \"svc\"\nport = 8080\n[db]\nhost = \"h\"\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "svc",
		"port": 8080,
		"db":   map[string]any{"host": "h"},
	}, ToValue(n))

	_, err = ParseSource("conf.toml.gz", []byte("= broken"))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestToYAMLNode_RoundTrip(t *testing.T) {
	src := FromValue(map[string]any{"port": 8080, "name": "svc", "tags": []any{"a", "b"}, "ver": "1.0"})
	out, err := yaml.Marshal(ToYAMLNode(src))
	require.NoError(t, err)

	back, err := Parse(out)
	require.NoError(t, err)
	assert.True(t, Equal(src, back))
}
