// Package redis adapts github.com/redis/go-redis/v9 to cache.Cache.
package redis

import (
	"context"
	"time"

	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/cache/backend"
	goredis "github.com/redis/go-redis/v9"
)

// Store wraps a *goredis.Client. Values are gob-encoded into redis
// strings (see backend.Encode); Count uses DBSIZE, which reports the
// whole selected database, not just keys this Store wrote.
type Store struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ cache.Cache = (*Store)(nil)

// New builds a Store against client with the given per-entry TTL
// (0 = no expiration).
func New(rdb *goredis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Get(key string) (any, bool) {
	raw, err := s.rdb.Get(context.Background(), key).Bytes()
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
	_ = s.rdb.Set(context.Background(), key, raw, s.ttl).Err() //nolint:errcheck
}

func (s *Store) Has(key string) bool {
	n, err := s.rdb.Exists(context.Background(), key).Result()
	return err == nil && n > 0
}

func (s *Store) Remove(key string) { _ = s.rdb.Del(context.Background(), key).Err() } //nolint:errcheck

func (s *Store) Clear() { _ = s.rdb.FlushDB(context.Background()).Err() } //nolint:errcheck

func (s *Store) Count() int {
	n, err := s.rdb.DBSize(context.Background()).Result()
	if err != nil {
		return 0
	}
	return int(n)
}
