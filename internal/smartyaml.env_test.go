package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "yes", "1", "on", "Enabled", " true "} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "no", "0", "off", "disabled", ""} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}

	_, err := ParseBool("maybe")
	assert.ErrorIs(t, err, ErrTypeConversion)
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, IsTruthy("yes"))
	assert.False(t, IsTruthy("maybe"))
	assert.False(t, IsTruthy(""))
}

func TestConvertTyped(t *testing.T) {
	tests := []struct {
		name string
		in   string
		typ  string
		want any
	}{
		{"none", "8080", "", "8080"},
		{"string", "8080", EnvTypeString, "8080"},
		{"str", "x", EnvTypeStr, "x"},
		{"int", " 8080 ", EnvTypeInt, 8080},
		{"float", "1.25", EnvTypeFloat, 1.25},
		{"bool", "on", EnvTypeBool, true},
		{"case insensitive type", "3", "INT", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ConvertTyped(NewString(tt.in, Position{}), tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ToValue(n))
		})
	}
}

func TestConvertTyped_Errors(t *testing.T) {
	_, err := ConvertTyped(NewString("abc", Position{}), EnvTypeInt)
	assert.ErrorIs(t, err, ErrTypeConversion)

	_, err = ConvertTyped(NewString("abc", Position{}), EnvTypeFloat)
	assert.ErrorIs(t, err, ErrTypeConversion)

	_, err = ConvertTyped(NewString("maybe", Position{}), EnvTypeBool)
	assert.ErrorIs(t, err, ErrTypeConversion)

	_, err = ConvertTyped(&Sequence{}, EnvTypeInt)
	assert.ErrorIs(t, err, ErrTypeConversion)

	_, err = ConvertTyped(NewString("1", Position{}), "decimal")
	assert.ErrorIs(t, err, ErrSyntax)
}
