package cache

import (
	"strings"
	"time"

	"github.com/forbearing/ogam/cache/backend/bigcache"
	"github.com/forbearing/ogam/cache/backend/ccache"
	"github.com/forbearing/ogam/cache/backend/fastcache"
	"github.com/forbearing/ogam/cache/backend/freecache"
	"github.com/forbearing/ogam/cache/backend/gocache"
	"github.com/forbearing/ogam/cache/backend/memcache"
	"github.com/forbearing/ogam/cache/backend/redis"
	"github.com/forbearing/ogam/config"
	"github.com/forbearing/ogam/ogamerrs"
	goredis "github.com/redis/go-redis/v9"
)

// NewFromConfig builds the second-level cache named by cfg.Backend,
// wrapped in an Adapter applying cfg.Namespace and cfg.ReadOnly.
// cfg.Eviction is not read: the chosen backend's own eviction behavior
// applies whatever policy value (LRU, FIFO, SOFT, WEAK) is configured.
func NewFromConfig(cfg config.Cache) (*Adapter, error) {
	var backendCache Cache
	ttl := cfg.FlushInterval
	if ttl <= 0 {
		ttl = 0
	}

	switch strings.ToLower(cfg.Backend) {
	case "ccache":
		entryTTL := ttl
		if entryTTL <= 0 {
			// ccache has no "never expire" sentinel: Set(key, value, 0)
			// expires the entry on the next lookup. A long-but-finite TTL
			// approximates "no expiration" for the common default config.
			entryTTL = 10 * time.Minute
		}
		backendCache = ccache.New(int64(cfg.Size), entryTTL)
	case "gocache":
		cleanup := ttl
		if cleanup <= 0 {
			cleanup = time.Minute
		}
		backendCache = gocache.New(ttl, cleanup)
	case "bigcache":
		lifeWindow := ttl
		if lifeWindow <= 0 {
			lifeWindow = 10 * time.Minute
		}
		bc, err := bigcache.New(lifeWindow)
		if err != nil {
			return nil, ogamerrs.Wrap(ogamerrs.Configuration, err, "build bigcache second-level cache")
		}
		backendCache = bc
	case "freecache":
		sizeBytes := cfg.Size
		if sizeBytes < 512*1024 {
			sizeBytes = 512 * 1024
		}
		backendCache = freecache.New(sizeBytes, int(ttl.Seconds()))
	case "fastcache":
		sizeBytes := cfg.Size
		if sizeBytes < 32*1024 {
			sizeBytes = 32 * 1024
		}
		backendCache = fastcache.New(sizeBytes)
	case "memcache":
		if cfg.Addr == "" {
			return nil, ogamerrs.New(ogamerrs.Configuration, "memcache second-level cache requires cfg.Addr")
		}
		backendCache = memcache.New(int32(ttl.Seconds()), strings.Split(cfg.Addr, ",")...)
	case "redis":
		if cfg.Addr == "" {
			return nil, ogamerrs.New(ogamerrs.Configuration, "redis second-level cache requires cfg.Addr")
		}
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
		backendCache = redis.New(rdb, ttl)
	default:
		return nil, ogamerrs.Newf(ogamerrs.Configuration, "unknown second-level cache backend %q", cfg.Backend)
	}

	return NewAdapter(backendCache, cfg.Namespace, cfg.ReadOnly), nil
}
