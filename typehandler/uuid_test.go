package typehandler_test

import (
	"reflect"
	"testing"

	"github.com/forbearing/ogam/typehandler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDHandlerSetParameterAcceptsUUIDValue(t *testing.T) {
	h := typehandler.UUIDHandler{}
	id := uuid.New()

	out, err := h.SetParameter(id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), out)
}

func TestUUIDHandlerSetParameterValidatesStringForm(t *testing.T) {
	h := typehandler.UUIDHandler{}

	_, err := h.SetParameter("not-a-uuid")
	assert.Error(t, err)

	out, err := h.SetParameter("  6ba7b810-9dad-11d1-80b4-00c04fd430c8  ")
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", out)
}

func TestUUIDHandlerGetResultParsesDriverString(t *testing.T) {
	h := typehandler.UUIDHandler{}
	id := uuid.New()

	out, err := h.GetResult(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, out)
}

func TestUUIDHandlerNilRoundtrip(t *testing.T) {
	h := typehandler.UUIDHandler{}

	out, err := h.SetParameter(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = h.GetResult(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRegistryLookupTypeResolvesUUIDHandlerByType(t *testing.T) {
	r := typehandler.NewRegistry()
	id := uuid.New()

	h := r.LookupType(reflect.TypeOf(id))
	assert.Equal(t, "uuid", h.TypeName())
}

func TestRegistryLookupByNameResolvesUUID(t *testing.T) {
	r := typehandler.NewRegistry()
	h := r.Lookup("uuid")
	assert.Equal(t, "uuid", h.TypeName())
}
