// Package freecache adapts github.com/coocood/freecache to cache.Cache.
package freecache

import (
	"github.com/coocood/freecache"
	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/cache/backend"
)

// Store wraps a *freecache.Cache. Values are gob-encoded (see
// backend.Encode) since freecache only stores []byte.
type Store struct {
	fc          *freecache.Cache
	expireSecs  int
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store of sizeBytes capacity; expireSeconds of 0 means no
// expiration (entries live until evicted for space).
func New(sizeBytes, expireSeconds int) *Store {
	return &Store{fc: freecache.NewCache(sizeBytes), expireSecs: expireSeconds}
}

func (s *Store) Get(key string) (any, bool) {
	raw, err := s.fc.Get([]byte(key))
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
	_ = s.fc.Set([]byte(key), raw, s.expireSecs) //nolint:errcheck
}

func (s *Store) Has(key string) bool {
	_, err := s.fc.Get([]byte(key))
	return err == nil
}

func (s *Store) Remove(key string) { s.fc.Del([]byte(key)) }

func (s *Store) Clear() { s.fc.Clear() }

func (s *Store) Count() int { return int(s.fc.EntryCount()) }
