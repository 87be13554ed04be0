package config

import "time"

// Eviction enumerates the second-level cache eviction policies of
// spec §4.8. This runtime has no GC-integrated memory-sensitive
// eviction. The value is carried in configuration only: cache.
// NewFromConfig picks the store from Backend and does not read Eviction,
// so every policy value, SOFT and WEAK included, gets the chosen
// backend's own eviction behavior.
type Eviction string

const (
	EvictionLRU  Eviction = "LRU"
	EvictionFIFO Eviction = "FIFO"
	EvictionSOFT Eviction = "SOFT"
	EvictionWEAK Eviction = "WEAK"
)

// Cache is the second-level cache configuration, one entry per mapper
// namespace in a full deployment; this struct is the default applied
// when a namespace doesn't declare its own.
type Cache struct {
	Eviction      Eviction      `mapstructure:"eviction" yaml:"eviction" default:"LRU"`
	Size          int           `mapstructure:"size" yaml:"size" default:"1000"`
	ReadOnly      bool          `mapstructure:"readOnly" yaml:"readOnly"`
	FlushInterval time.Duration `mapstructure:"flushInterval" yaml:"flushInterval"`
	Backend       string        `mapstructure:"backend" yaml:"backend" default:"ccache"` // ccache|gocache|bigcache|freecache|fastcache|memcache|redis
	Namespace     string        `mapstructure:"namespace" yaml:"namespace"`
	Addr          string        `mapstructure:"addr" yaml:"addr"` // for memcache/redis backends
}

func (c *Cache) setDefault() {
	if len(c.Eviction) == 0 {
		c.Eviction = EvictionLRU
	}
	if c.Size <= 0 {
		c.Size = 1000
	}
	if len(c.Backend) == 0 {
		c.Backend = "ccache"
	}
}
