package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Type tags the resolved cache backend.
type Type string

const (
	TypeRedis      Type = "RedisCache"
	TypeMemcached  Type = "MemcachedCache"
	TypeFileSystem Type = "FileSystemCache"
	TypeNull       Type = "NullCache"
)

const (
	// KeyPrefix namespaces every cache key written by this application.
	KeyPrefix = "lms:"
	// DefaultTTL applies when callers pass no explicit TTL.
	DefaultTTL = 90 * time.Second
)

// Config is the resolved backend selection plus its connection parameters.
type Config struct {
	Type             Type
	RedisURL         string
	MemcachedServers []string
	Dir              string
	KeyPrefix        string
	DefaultTTL       time.Duration
}

// Env looks up an environment variable. Injectable so the candidate chain is
// testable without mutating the process environment.
type Env func(key string) string

// Resolve walks the candidate chain in priority order and returns the first
// backend that is configured and usable. Probe failures are logged and the
// chain falls through; the zero-dependency Null backend always succeeds.
func Resolve(lookup Env, logger *zap.Logger) Config {
	if lookup == nil {
		lookup = os.Getenv
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	candidates := []struct {
		name  string
		probe func(Env) (*Config, error)
	}{
		{"redis", probeRedis},
		{"memcached", probeMemcached},
		{"filesystem", probeFileSystem},
	}

	for _, candidate := range candidates {
		cfg, err := candidate.probe(lookup)
		if err != nil {
			logger.Warn("cache backend probe failed",
				zap.String("backend", candidate.name), zap.Error(err))
			continue
		}
		if cfg == nil {
			continue
		}
		cfg.KeyPrefix = KeyPrefix
		cfg.DefaultTTL = DefaultTTL
		logger.Info("cache backend selected", zap.String("backend", string(cfg.Type)))
		return *cfg
	}

	logger.Info("cache backend selected", zap.String("backend", string(TypeNull)))
	return Config{Type: TypeNull, KeyPrefix: KeyPrefix, DefaultTTL: DefaultTTL}
}

// probeRedis resolves the Redis backend. CACHE_REDIS_URL beats the generic
// REDIS_URL; host/port variables are the last resort.
func probeRedis(lookup Env) (*Config, error) {
	url := lookup("CACHE_REDIS_URL")
	if url == "" {
		url = lookup("REDIS_URL")
	}
	if url == "" {
		host := lookup("CACHE_REDIS_HOST")
		if host == "" {
			return nil, nil
		}
		port := lookup("CACHE_REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		url = fmt.Sprintf("redis://%s:%s/0", host, port)
	}
	return &Config{Type: TypeRedis, RedisURL: url}, nil
}

func probeMemcached(lookup Env) (*Config, error) {
	raw := lookup("CACHE_MEMCACHED_SERVERS")
	if raw == "" {
		return nil, nil
	}
	var servers []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			servers = append(servers, trimmed)
		}
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("CACHE_MEMCACHED_SERVERS set but empty")
	}
	return &Config{Type: TypeMemcached, MemcachedServers: servers}, nil
}

// probeFileSystem requires the explicit opt-in flag and a directory that
// survives a real write test. A RAM-backed path is preferred over the general
// temp directory.
func probeFileSystem(lookup Env) (*Config, error) {
	if lookup("NOW_LMS_MEMORY_CACHE") != "1" {
		return nil, nil
	}

	candidates := []string{
		filepath.Join("/dev/shm", "now_lms_cache"),
		filepath.Join(os.TempDir(), "now_lms_cache"),
	}

	var lastErr error
	for _, dir := range candidates {
		if err := probeDir(dir); err != nil {
			lastErr = err
			continue
		}
		return &Config{Type: TypeFileSystem, Dir: dir}, nil
	}
	return nil, fmt.Errorf("no writable cache directory: %w", lastErr)
}

// probeDir verifies actual write access, not just existence.
func probeDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return err
	}
	return os.Remove(probe)
}
