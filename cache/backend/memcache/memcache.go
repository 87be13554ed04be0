// Package memcache adapts github.com/bradfitz/gomemcache to cache.Cache.
// memcached has no native count or clear-everything-owned-by-us
// primitive, so Count is tracked locally and Clear calls FlushAll
// (which flushes the whole memcached instance, not just this namespace).
package memcache

import (
	"sync/atomic"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/cache/backend"
)

// Store wraps a *memcache.Client.
type Store struct {
	mc         *memcache.Client
	expireSecs int32
	count      int64
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store against the given memcached server addresses.
func New(expireSeconds int32, servers ...string) *Store {
	return &Store{mc: memcache.New(servers...), expireSecs: expireSeconds}
}

func (s *Store) Get(key string) (any, bool) {
	item, err := s.mc.Get(key)
	if err != nil {
		return nil, false
	}
	v, err := backend.Decode(item.Value)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (s *Store) Put(key string, value any) {
	raw, err := backend.Encode(value)
	if err != nil {
		return
	}
	existed := s.Has(key)
	if err := s.mc.Set(&memcache.Item{Key: key, Value: raw, Expiration: s.expireSecs}); err == nil && !existed {
		atomic.AddInt64(&s.count, 1)
	}
}

func (s *Store) Has(key string) bool {
	_, err := s.mc.Get(key)
	return err == nil
}

func (s *Store) Remove(key string) {
	if s.mc.Delete(key) == nil {
		atomic.AddInt64(&s.count, -1)
	}
}

func (s *Store) Clear() {
	_ = s.mc.FlushAll() //nolint:errcheck
	atomic.StoreInt64(&s.count, 0)
}

func (s *Store) Count() int { return int(atomic.LoadInt64(&s.count)) }
