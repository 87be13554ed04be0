// Package ccache adapts github.com/karlseguin/ccache/v3 to cache.Cache.
// ccache is itself an in-process LRU, so this adapter stores values
// directly without a byte-encoding round trip.
package ccache

import (
	"time"

	"github.com/forbearing/ogam/cache"
	"github.com/karlseguin/ccache/v3"
)

// Store wraps a *ccache.Cache[any].
type Store struct {
	c   *ccache.Cache[any]
	ttl time.Duration
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store holding up to maxItems entries with ttl per entry.
func New(maxItems int64, ttl time.Duration) *Store {
	return &Store{c: ccache.New(ccache.Configure[any]().MaxSize(maxItems)), ttl: ttl}
}

func (s *Store) Get(key string) (any, bool) {
	item := s.c.Get(key)
	if item == nil || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

func (s *Store) Put(key string, value any) { s.c.Set(key, value, s.ttl) }

func (s *Store) Has(key string) bool {
	item := s.c.Get(key)
	return item != nil && !item.Expired()
}

func (s *Store) Remove(key string) { s.c.Delete(key) }

func (s *Store) Clear() { s.c.Clear() }

func (s *Store) Count() int { return s.c.ItemCount() }
