// Package gocache adapts github.com/patrickmn/go-cache to cache.Cache.
package gocache

import (
	"time"

	"github.com/forbearing/ogam/cache"
	gocache "github.com/patrickmn/go-cache"
)

// Store wraps a *gocache.Cache.
type Store struct {
	gc  *gocache.Cache
	ttl time.Duration
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store with the given per-entry TTL (0 = never expires)
// and cleanup sweep interval.
func New(ttl, cleanupInterval time.Duration) *Store {
	return &Store{gc: gocache.New(ttl, cleanupInterval), ttl: ttl}
}

func (s *Store) Get(key string) (any, bool) { return s.gc.Get(key) }

func (s *Store) Put(key string, value any) { s.gc.Set(key, value, s.ttl) }

func (s *Store) Has(key string) bool {
	_, ok := s.gc.Get(key)
	return ok
}

func (s *Store) Remove(key string) { s.gc.Delete(key) }

func (s *Store) Clear() { s.gc.Flush() }

func (s *Store) Count() int { return s.gc.ItemCount() }
