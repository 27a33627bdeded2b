package internal

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constHandler(v any) Handler {
	return HandlerFunc(func(call *Call, rc *Context) (Node, error) {
		return FromValue(v), nil
	})
}

func TestRegistry_NewRegistry(t *testing.T) {
	reg := NewRegistry(nil)
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
}

func TestRegistry_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		reg := NewRegistry(nil)

		require.NoError(t, reg.Register("upper", constHandler("X"), false))
		assert.True(t, reg.Has("upper"))
		assert.Equal(t, 1, reg.Count())
	})

	t.Run("nil handler", func(t *testing.T) {
		reg := NewRegistry(nil)

		err := reg.Register("upper", nil, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgNilHandler)
	})

	t.Run("empty name", func(t *testing.T) {
		reg := NewRegistry(nil)

		err := reg.Register("", constHandler(1), false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgEmptyDirectiveName)
	})

	t.Run("invalid name", func(t *testing.T) {
		reg := NewRegistry(nil)

		err := reg.Register("no spaces", constHandler(1), false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgTagInvalidName)
	})

	t.Run("duplicate", func(t *testing.T) {
		reg := NewRegistry(nil)
		require.NoError(t, reg.Register("upper", constHandler(1), false))

		err := reg.Register("upper", constHandler(2), false)
		require.Error(t, err)

		var regErr *RegistryError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, "upper", regErr.Name)
	})

	t.Run("replace", func(t *testing.T) {
		reg := NewRegistry(nil)
		require.NoError(t, reg.Register("upper", constHandler(1), false))
		require.NoError(t, reg.Register("upper", constHandler(2), true))

		h, err := reg.Lookup("upper")
		require.NoError(t, err)
		n, err := h.Resolve(&Call{}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, ToValue(n))
	})
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegister("upper", constHandler(1))

	assert.Panics(t, func() {
		reg.MustRegister("upper", constHandler(1))
	})
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.Lookup("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDirective)
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		reg.MustRegister(name, constHandler(name))
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.List())
}

func TestRegistry_Builtins(t *testing.T) {
	reg := NewBuiltinRegistry(nil)

	for _, name := range []string{
		DirectiveImport, DirectiveImportYAML, DirectiveEnv, DirectiveEnvString,
		DirectiveEnvInt, DirectiveEnvFloat, DirectiveEnvBool, DirectiveIncludeIf,
		DirectiveIncludeYAMLIf, DirectiveTemplate, DirectiveMerge, DirectiveConcat,
		DirectiveExtend, DirectiveBase64, DirectiveBase64Decode, DirectiveExpand,
		DirectiveIf, DirectiveSwitch,
	} {
		assert.True(t, reg.Has(name), name)
	}
	assert.Equal(t, 18, reg.Count())

	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewBuiltinRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("custom_%d", i)
			assert.NoError(t, reg.Register(name, constHandler(i), false))
			assert.True(t, reg.Has(DirectiveEnv))
			_ = reg.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 38, reg.Count())
}
