package smartyaml

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var portSchema = map[string]any{
	"type":     "object",
	"required": []any{"host", "port"},
	"properties": map[string]any{
		"port": map[string]any{"type": "integer"},
	},
}

func TestJSONSchemaValidator(t *testing.T) {
	v := NewJSONSchemaValidator()

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, v.Validate(map[string]any{"host": "db", "port": 5432}, portSchema))
	})

	t.Run("issues", func(t *testing.T) {
		issues := v.Validate(map[string]any{"port": "x"}, portSchema)
		require.NotEmpty(t, issues)

		var paths, messages []string
		for _, issue := range issues {
			paths = append(paths, issue.Path)
			messages = append(messages, issue.String())
		}
		assert.Contains(t, paths, "/port")
		assert.Contains(t, strings.Join(messages, "\n"), "host")
	})

	t.Run("schema as JSON text", func(t *testing.T) {
		schema := `{"type": "array", "items": {"type": "string"}}`
		assert.Empty(t, v.Validate([]any{"a"}, schema))
		assert.NotEmpty(t, v.Validate([]any{1}, schema))
	})

	t.Run("invalid schema", func(t *testing.T) {
		issues := v.Validate(map[string]any{}, map[string]any{"type": 5})
		require.Len(t, issues, 1)
		assert.True(t, strings.HasPrefix(issues[0].Message, ErrMsgSchemaCompile))
	})
}

func TestToJSONValue(t *testing.T) {
	out, err := toJSONValue(map[string]any{"port": 5432, "ratio": 0.5, "tags": []string{"a"}})
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("5432"), m["port"])
	assert.Equal(t, json.Number("0.5"), m["ratio"])
	assert.Equal(t, []any{"a"}, m["tags"])

	v := NewJSONSchemaValidator()
	assert.Empty(t, v.Validate(map[string]any{"host": "db", "port": int64(8080)}, portSchema))
	assert.NotEmpty(t, v.Validate(map[string]any{"host": "db", "port": 80.5}, portSchema))
}

func TestValidationIssue_String(t *testing.T) {
	assert.Equal(t, "bad", ValidationIssue{Message: "bad"}.String())
	assert.Equal(t, "/a: bad", ValidationIssue{Path: "/a", Message: "bad"}.String())
}

func TestEngine_Schema(t *testing.T) {
	ctx := context.Background()
	doc := strings.Join([]string{
		"__schema:",
		"  type: object",
		"  required: [port]",
		"  properties:",
		"    port: {type: integer, minimum: 1}",
		"port: !env_int(SMARTYAML_TEST_PORT, 8080)",
		"",
	}, "\n")

	t.Run("valid", func(t *testing.T) {
		d, err := MustNew(WithEnvironment(mapEnv(nil))).LoadString(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"port": 8080}, d.Map())
	})

	t.Run("invalid", func(t *testing.T) {
		env := mapEnv(map[string]string{"SMARTYAML_TEST_PORT": "0"})
		_, err := MustNew(WithEnvironment(env)).LoadString(ctx, doc)
		require.ErrorIs(t, err, ErrSchemaValidation)
		assert.Equal(t, KindSchemaValidation, KindOf(err))
		assert.Contains(t, err.Error(), "/port")
	})

	t.Run("custom validator", func(t *testing.T) {
		var seen any
		validator := SchemaValidatorFunc(func(value, schema any) []ValidationIssue {
			seen = schema
			return []ValidationIssue{{Path: "/x", Message: "rejected"}}
		})
		_, err := MustNew(WithSchemaValidator(validator)).LoadString(ctx, "__schema: {any: thing}\nx: 1\n")
		require.ErrorIs(t, err, ErrSchemaValidation)
		assert.Contains(t, err.Error(), "/x: rejected")
		assert.Equal(t, map[string]any{"any": "thing"}, seen)
	})

	t.Run("no schema", func(t *testing.T) {
		validator := SchemaValidatorFunc(func(value, schema any) []ValidationIssue {
			return []ValidationIssue{{Message: "never"}}
		})
		_, err := MustNew(WithSchemaValidator(validator)).LoadString(ctx, "x: 1\n")
		assert.NoError(t, err)
	})
}
