package typehandler_test

import (
	"reflect"
	"testing"

	"github.com/forbearing/ogam/typehandler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderStatus string

type priority int

func TestLookupTypeAutoCreatesStringEnumHandler(t *testing.T) {
	reg := typehandler.NewRegistry()
	h := reg.LookupType(reflect.TypeOf(orderStatus("")))

	v, err := h.SetParameter(orderStatus("shipped"))
	require.NoError(t, err)
	assert.Equal(t, "shipped", v)

	got, err := h.GetResult("shipped")
	require.NoError(t, err)
	assert.Equal(t, orderStatus("shipped"), got)
}

func TestLookupTypeAutoCreatesIntEnumHandler(t *testing.T) {
	reg := typehandler.NewRegistry()
	h := reg.LookupType(reflect.TypeOf(priority(0)))

	v, err := h.SetParameter(priority(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	got, err := h.GetResult(int64(3))
	require.NoError(t, err)
	assert.Equal(t, priority(3), got)
}

func TestLookupTypeSameEnumTypeIsCached(t *testing.T) {
	reg := typehandler.NewRegistry()
	a := reg.LookupType(reflect.TypeOf(orderStatus("")))
	b := reg.LookupType(reflect.TypeOf(orderStatus("")))
	assert.Equal(t, a.TypeName(), b.TypeName())
}

func TestLookupValueResolvesEnumByRuntimeValue(t *testing.T) {
	reg := typehandler.NewRegistry()
	h := reg.LookupValue(orderStatus("pending"))
	v, err := h.SetParameter(orderStatus("pending"))
	require.NoError(t, err)
	assert.Equal(t, "pending", v)
}
