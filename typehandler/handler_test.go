package typehandler_test

import (
	"testing"
	"time"

	"github.com/forbearing/ogam/typehandler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooleanHandlerTruthTable(t *testing.T) {
	h := typehandler.BooleanHandler{}
	trueValues := []any{"1", "true", "TRUE", "t", "T", "y", "yes", "YES", "on", true, 1}
	for _, v := range trueValues {
		got, err := h.GetResult(v)
		require.NoErrorf(t, err, "value %v", v)
		assert.Equalf(t, true, got, "value %v", v)
	}
	falseValues := []any{"0", "false", "no", "off", "garbage", false, 0}
	for _, v := range falseValues {
		got, err := h.GetResult(v)
		require.NoErrorf(t, err, "value %v", v)
		assert.Equalf(t, false, got, "value %v", v)
	}
}

func TestIntegerHandlerRoundtrip(t *testing.T) {
	h := typehandler.IntegerHandler{}
	v, err := h.SetParameter("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	r, err := h.GetResult([]byte("99"))
	require.NoError(t, err)
	assert.Equal(t, int64(99), r)

	_, err = h.SetParameter("not-a-number")
	assert.Error(t, err)
}

func TestStringHandlerIsDefaultUnknownHandler(t *testing.T) {
	reg := typehandler.NewRegistry()
	h := reg.Lookup("some-unregistered-type-name")
	_, ok := h.(typehandler.StringHandler)
	assert.True(t, ok)
}

func TestRegistryLookupByName(t *testing.T) {
	reg := typehandler.NewRegistry()
	assert.Equal(t, "integer", reg.Lookup("integer").TypeName())
	assert.Equal(t, "boolean", reg.Lookup("bool").TypeName())
	assert.Equal(t, "float", reg.Lookup("double").TypeName())
}

func TestImmutableTemporalHandlerFormat(t *testing.T) {
	h := typehandler.ImmutableTemporalHandler{}
	ref := time.Date(2026, 3, 4, 5, 6, 7, 123456000, time.UTC)
	out, err := h.SetParameter(ref)
	require.NoError(t, err)
	s, ok := out.(string)
	require.True(t, ok)
	assert.Contains(t, s, "2026-03-04T05:06:07.123456")

	back, err := h.GetResult(s)
	require.NoError(t, err)
	got, ok := back.(time.Time)
	require.True(t, ok)
	assert.True(t, ref.Equal(got))
}
