package smartyaml

import (
	"context"
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindSyntax, ErrCodeSyntax},
		{KindCircularRef, ErrCodeCircularRef},
		{KindEnvVarMissing, ErrCodeEnvVarMissing},
		{KindSchemaValidation, ErrCodeSchema},
		{KindTemplatePath, ErrCodeTemplatePath},
		{ErrorKind("other"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.kind))
		})
	}
}

func TestNewLoadError(t *testing.T) {
	engine := MustNew(WithEnvironment(mapEnv(nil)))

	_, err := engine.LoadString(context.Background(), "a: 1\nhome: !env(SMARTYAML_HOME)\n")
	require.Error(t, err)

	var custom *cuserr.CustomError
	require.True(t, errors.As(err, &custom))

	kind, ok := custom.GetMetadata(MetaKeyKind)
	require.True(t, ok)
	assert.Equal(t, string(KindEnvVarMissing), kind)

	path, ok := custom.GetMetadata(MetaKeyPath)
	require.True(t, ok)
	assert.Equal(t, InMemoryOrigin, path)

	line, ok := custom.GetMetadata(MetaKeyLine)
	require.True(t, ok)
	assert.Equal(t, "2", line)

	directive, ok := custom.GetMetadata(MetaKeyDirective)
	require.True(t, ok)
	assert.Equal(t, DirectiveEnv, directive)

	detail, ok := custom.GetMetadata(MetaKeyDetail)
	require.True(t, ok)
	assert.Equal(t, "SMARTYAML_HOME", detail)

	chain, ok := custom.GetMetadata(MetaKeyChain)
	require.True(t, ok)
	assert.Contains(t, chain, InMemoryOrigin+":2:")

	assert.ErrorIs(t, err, ErrEnvVarMissing)
	assert.NotErrorIs(t, err, ErrSyntax)
	assert.Equal(t, KindEnvVarMissing, KindOf(err))

	t.Run("idempotent", func(t *testing.T) {
		assert.Same(t, err, NewLoadError(err))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, NewLoadError(nil))
	})

	t.Run("foreign error", func(t *testing.T) {
		plain := errors.New("plain")
		wrapped := NewLoadError(plain)

		var c *cuserr.CustomError
		require.True(t, errors.As(wrapped, &c))
		assert.ErrorIs(t, wrapped, plain)
		assert.Equal(t, ErrorKind(""), KindOf(wrapped))
		assert.Nil(t, ErrorChain(wrapped))
	})
}

func TestErrorChain_NestedDocuments(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"root.yaml": "svc: !import_yaml(mid.yaml)\n",
		"mid.yaml":  "x: 1\ninner: !import_yaml(leaf.yaml)\n",
		"leaf.yaml": "a: 1\nb: 2\nc: !env_int(SMARTYAML_PORT)\n",
	})
	engine := MustNew(WithBasePath(dir), WithEnvironment(mapEnv(map[string]string{"SMARTYAML_PORT": "eighty"})))

	_, err := engine.LoadFile(context.Background(), "root.yaml")
	require.ErrorIs(t, err, ErrTypeConversion)

	chain := ErrorChain(err)
	require.Len(t, chain, 3)
	assert.Contains(t, chain[0], "leaf.yaml:3:")
	assert.Contains(t, chain[1], "mid.yaml:2:")
	assert.Contains(t, chain[2], "root.yaml:1:")
}

func TestSentinels(t *testing.T) {
	sentinels := map[ErrorKind]error{
		KindSyntax:           ErrSyntax,
		KindUnknownDirective: ErrUnknownDirective,
		KindPathViolation:    ErrPathViolation,
		KindResourceLimit:    ErrResourceLimit,
		KindRecursionLimit:   ErrRecursionLimit,
		KindCircularRef:      ErrCircularReference,
		KindFileNotFound:     ErrFileNotFound,
		KindTypeConversion:   ErrTypeConversion,
		KindEnvVarMissing:    ErrEnvVarMissing,
		KindMergeConflict:    ErrMergeConflict,
		KindTypeConflict:     ErrTypeConflict,
		KindEncoding:         ErrEncoding,
		KindVariableNotFound: ErrVariableNotFound,
		KindVersionMismatch:  ErrVersionMismatch,
		KindSchemaValidation: ErrSchemaValidation,
		KindTemplatePath:     ErrTemplatePath,
		KindDirective:        ErrDirective,
	}
	for kind, sentinel := range sentinels {
		assert.Equal(t, kind, KindOf(sentinel), kind)
		assert.NotEqual(t, ErrCodeInternal, ErrorCode(kind), kind)
	}
}
