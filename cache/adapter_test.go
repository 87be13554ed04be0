package cache_test

import (
	"testing"

	"github.com/forbearing/ogam/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is a minimal in-process cache.Cache used to isolate Adapter's
// own namespacing/sanitization/deep-copy behavior from any real backend.
type memCache struct{ m map[string]any }

func newMemCache() *memCache { return &memCache{m: make(map[string]any)} }

func (c *memCache) Get(key string) (any, bool) { v, ok := c.m[key]; return v, ok }
func (c *memCache) Put(key string, value any)  { c.m[key] = value }
func (c *memCache) Has(key string) bool        { _, ok := c.m[key]; return ok }
func (c *memCache) Remove(key string)          { delete(c.m, key) }
func (c *memCache) Clear()                     { c.m = make(map[string]any) }
func (c *memCache) Count() int                 { return len(c.m) }

func TestAdapterNamespacesAndSanitizesKeys(t *testing.T) {
	backend := newMemCache()
	a := cache.NewAdapter(backend, "users ns", false)

	a.Put("select: 1", "row")
	_, ok := backend.Get("select: 1")
	assert.False(t, ok, "raw key must never reach the backend unsanitized/unnamespaced")

	v, ok := a.Get("select: 1")
	require.True(t, ok)
	assert.Equal(t, "row", v)
}

func TestAdapterDeepCopiesOnGetWhenNotReadOnly(t *testing.T) {
	backend := newMemCache()
	a := cache.NewAdapter(backend, "", false)

	type record struct{ Tags []string }
	original := &record{Tags: []string{"a", "b"}}
	a.Put("k", original)

	got, ok := a.Get("k")
	require.True(t, ok)
	copy1 := got.(*record)
	copy1.Tags[0] = "mutated"

	got2, ok := a.Get("k")
	require.True(t, ok)
	copy2 := got2.(*record)
	assert.Equal(t, "a", copy2.Tags[0], "mutating one Get's result must not affect the stored value or later Gets")
}

func TestAdapterReadOnlySkipsDeepCopy(t *testing.T) {
	backend := newMemCache()
	a := cache.NewAdapter(backend, "", true)

	type record struct{ Tags []string }
	original := &record{Tags: []string{"a"}}
	a.Put("k", original)

	got, _ := a.Get("k")
	assert.Same(t, original, got.(*record), "readOnly adapters must hand back the stored value itself")
}

func TestAdapterRemoveClearCount(t *testing.T) {
	backend := newMemCache()
	a := cache.NewAdapter(backend, "ns", false)

	a.Put("a", 1)
	a.Put("b", 2)
	assert.Equal(t, 2, a.Count())

	a.Remove("a")
	assert.False(t, a.Has("a"))
	assert.Equal(t, 1, a.Count())

	a.Clear()
	assert.Equal(t, 0, a.Count())
}
