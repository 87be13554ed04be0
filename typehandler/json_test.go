package typehandler_test

import (
	"testing"

	"github.com/forbearing/ogam/typehandler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandlerRoundtripsMap(t *testing.T) {
	h := typehandler.JSONHandler{}
	in := map[string]any{"city": "NYC", "zip": "10001"}

	bound, err := h.SetParameter(in)
	require.NoError(t, err)
	s, ok := bound.(string)
	require.True(t, ok)

	out, err := h.GetResult(s)
	require.NoError(t, err)
	assert.Equal(t, "NYC", out.(map[string]any)["city"])
}

func TestJSONHandlerAcceptsByteSliceFromDriver(t *testing.T) {
	h := typehandler.JSONHandler{}
	out, err := h.GetResult([]byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, true, out.(map[string]any)["ok"])
}

func TestJSONHandlerNilRoundtrip(t *testing.T) {
	h := typehandler.JSONHandler{}
	v, err := h.SetParameter(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	r, err := h.GetResult(nil)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestJSONHandlerRejectsUnsupportedRawKind(t *testing.T) {
	h := typehandler.JSONHandler{}
	_, err := h.GetResult(42)
	assert.Error(t, err)
}
