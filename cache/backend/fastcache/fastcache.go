// Package fastcache adapts github.com/VictoriaMetrics/fastcache to
// cache.Cache.
package fastcache

import (
	"sync/atomic"

	vmfastcache "github.com/VictoriaMetrics/fastcache"
	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/cache/backend"
)

// Store wraps a *fastcache.Cache. fastcache has no per-key existence
// check cheaper than a full Get, and no exact live-entry count, so Count
// is tracked locally (best-effort: it does not account for fastcache's
// own eviction).
type Store struct {
	fc    *vmfastcache.Cache
	count int64
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store with the given approximate max size in bytes.
func New(maxBytes int) *Store {
	return &Store{fc: vmfastcache.New(maxBytes)}
}

func (s *Store) Get(key string) (any, bool) {
	raw, found := s.fc.HasGet(nil, []byte(key))
	if !found {
		return nil, false
	}
	v, err := backend.Decode(raw)
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
	s.fc.Set([]byte(key), raw)
	if !existed {
		atomic.AddInt64(&s.count, 1)
	}
}

func (s *Store) Has(key string) bool { return s.fc.Has([]byte(key)) }

func (s *Store) Remove(key string) {
	s.fc.Del([]byte(key))
	atomic.AddInt64(&s.count, -1)
}

func (s *Store) Clear() {
	s.fc.Reset()
	atomic.StoreInt64(&s.count, 0)
}

func (s *Store) Count() int { return int(atomic.LoadInt64(&s.count)) }
