package cache_test

import (
	"testing"

	"github.com/forbearing/ogam/cache"
	"github.com/stretchr/testify/assert"
)

func TestNewKeyIsDeterministicForEqualParams(t *testing.T) {
	a := cache.NewKey("ns.select", map[string]any{"id": 1, "name": "ann"}, -1, -1)
	b := cache.NewKey("ns.select", map[string]any{"name": "ann", "id": 1}, -1, -1)
	assert.True(t, a.Equal(b), "map key order must not affect the cache key")
}

func TestNewKeyDiffersByStatementID(t *testing.T) {
	a := cache.NewKey("ns.select1", map[string]any{"id": 1}, -1, -1)
	b := cache.NewKey("ns.select2", map[string]any{"id": 1}, -1, -1)
	assert.False(t, a.Equal(b))
}

func TestNewKeyDiffersByOffsetLimit(t *testing.T) {
	a := cache.NewKey("ns.select", map[string]any{"id": 1}, 0, 10)
	b := cache.NewKey("ns.select", map[string]any{"id": 1}, 10, 10)
	assert.False(t, a.Equal(b))
}

type record struct{ Name string }

func TestNewKeySameStructPointerIsStable(t *testing.T) {
	r := &record{Name: "ann"}
	a := cache.NewKey("ns.select", r, -1, -1)
	b := cache.NewKey("ns.select", r, -1, -1)
	assert.True(t, a.Equal(b))
}

func TestNewKeyValueStructCopyGetsFreshIdentity(t *testing.T) {
	r1 := record{Name: "ann"}
	r2 := record{Name: "ann"}
	a := cache.NewKey("ns.select", r1, -1, -1)
	b := cache.NewKey("ns.select", r2, -1, -1)
	assert.False(t, a.Equal(b), "value-copied structs have no stable identity")
}

func TestLocalCacheGetPutClear(t *testing.T) {
	l := cache.NewLocal()
	k := cache.NewKey("ns.select", map[string]any{"id": 1}, -1, -1)
	_, ok := l.Get(k)
	assert.False(t, ok)

	l.Put(k, []any{"row"})
	v, ok := l.Get(k)
	assert.True(t, ok)
	assert.Equal(t, []any{"row"}, v)
	assert.Equal(t, 1, l.Count())

	l.Clear()
	assert.Equal(t, 0, l.Count())
}
