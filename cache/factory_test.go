package cache_test

import (
	"testing"

	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigBuildsGoCacheAdapter(t *testing.T) {
	a, err := cache.NewFromConfig(config.Cache{Backend: "gocache", Namespace: "ns"})
	require.NoError(t, err)

	a.Put("k", "v")
	v, ok := a.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestNewFromConfigBuildsCCacheAdapter(t *testing.T) {
	a, err := cache.NewFromConfig(config.Cache{Backend: "ccache", Size: 10})
	require.NoError(t, err)

	a.Put("k", 42)
	v, ok := a.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestNewFromConfigRejectsUnknownBackend(t *testing.T) {
	_, err := cache.NewFromConfig(config.Cache{Backend: "no-such-backend"})
	assert.Error(t, err)
}

func TestNewFromConfigRedisRequiresAddr(t *testing.T) {
	_, err := cache.NewFromConfig(config.Cache{Backend: "redis"})
	assert.Error(t, err)
}

func TestNewFromConfigMemcacheRequiresAddr(t *testing.T) {
	_, err := cache.NewFromConfig(config.Cache{Backend: "memcache"})
	assert.Error(t, err)
}
