package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func envFrom(vars map[string]string) Env {
	return func(key string) string {
		return vars[key]
	}
}

func TestResolveNoEnvironment(t *testing.T) {
	cfg := Resolve(envFrom(nil), zap.NewNop())

	assert.Equal(t, TypeNull, cfg.Type)
	assert.Equal(t, KeyPrefix, cfg.KeyPrefix)
	assert.Equal(t, DefaultTTL, cfg.DefaultTTL)
}

func TestResolveRedisURL(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{
		"CACHE_REDIS_URL": "redis://cache.internal:6379/1",
	}), zap.NewNop())

	assert.Equal(t, TypeRedis, cfg.Type)
	assert.Equal(t, "redis://cache.internal:6379/1", cfg.RedisURL)
}

func TestResolveSpecificRedisURLWins(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{
		"CACHE_REDIS_URL": "redis://specific:6379/0",
		"REDIS_URL":       "redis://generic:6379/0",
	}), zap.NewNop())

	assert.Equal(t, TypeRedis, cfg.Type)
	assert.Equal(t, "redis://specific:6379/0", cfg.RedisURL)
}

func TestResolveGenericRedisURLFallback(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{
		"REDIS_URL": "redis://generic:6379/0",
	}), zap.NewNop())

	assert.Equal(t, TypeRedis, cfg.Type)
	assert.Equal(t, "redis://generic:6379/0", cfg.RedisURL)
}

func TestResolveRedisHostPort(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{
		"CACHE_REDIS_HOST": "10.0.0.5",
		"CACHE_REDIS_PORT": "6380",
	}), zap.NewNop())

	assert.Equal(t, TypeRedis, cfg.Type)
	assert.Equal(t, "redis://10.0.0.5:6380/0", cfg.RedisURL)
}

func TestResolveMemcached(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{
		"CACHE_MEMCACHED_SERVERS": "mc1:11211, mc2:11211",
	}), zap.NewNop())

	assert.Equal(t, TypeMemcached, cfg.Type)
	assert.Equal(t, []string{"mc1:11211", "mc2:11211"}, cfg.MemcachedServers)
}

func TestResolveRedisBeatsMemcached(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{
		"REDIS_URL":               "redis://generic:6379/0",
		"CACHE_MEMCACHED_SERVERS": "mc1:11211",
	}), zap.NewNop())

	assert.Equal(t, TypeRedis, cfg.Type)
}

func TestResolveFileSystemRequiresOptIn(t *testing.T) {
	cfg := Resolve(envFrom(map[string]string{}), zap.NewNop())
	assert.Equal(t, TypeNull, cfg.Type)

	cfg = Resolve(envFrom(map[string]string{"NOW_LMS_MEMORY_CACHE": "1"}), zap.NewNop())
	// Opt-in set: the probe must land on a writable directory or fall back to null.
	if cfg.Type == TypeFileSystem {
		assert.NotEmpty(t, cfg.Dir)
	} else {
		assert.Equal(t, TypeNull, cfg.Type)
	}
}

func TestProbeDirRejectsUnwritablePath(t *testing.T) {
	err := probeDir("/proc/no_such_cache_dir")
	require.Error(t, err)
}

func TestOpenUnreachableBackendDegradesToNull(t *testing.T) {
	store := Open(Config{
		Type:       TypeRedis,
		RedisURL:   "redis://127.0.0.1:1/0",
		KeyPrefix:  KeyPrefix,
		DefaultTTL: DefaultTTL,
	}, zap.NewNop())

	require.NotNil(t, store)
	_, isNull := store.(nullStore)
	assert.True(t, isNull)
}
