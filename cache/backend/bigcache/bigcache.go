// Package bigcache adapts github.com/allegro/bigcache to cache.Cache.
package bigcache

import (
	"time"

	"github.com/allegro/bigcache"
	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/cache/backend"
)

// Store wraps a *bigcache.BigCache. bigcache only stores []byte, so
// values are gob-encoded on the way in and out (see backend.Encode).
type Store struct {
	bc *bigcache.BigCache
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store with the given max entry lifetime.
func New(lifeWindow time.Duration) (*Store, error) {
	bc, err := bigcache.NewBigCache(bigcache.DefaultConfig(lifeWindow))
	if err != nil {
		return nil, err
	}
	return &Store{bc: bc}, nil
}

func (s *Store) Get(key string) (any, bool) {
	raw, err := s.bc.Get(key)
	if err != nil {
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
	_ = s.bc.Set(key, raw) //nolint:errcheck
}

func (s *Store) Has(key string) bool {
	_, err := s.bc.Get(key)
	return err == nil
}

func (s *Store) Remove(key string) { _ = s.bc.Delete(key) } //nolint:errcheck

func (s *Store) Clear() { _ = s.bc.Reset() } //nolint:errcheck

func (s *Store) Count() int { return s.bc.Len() }
