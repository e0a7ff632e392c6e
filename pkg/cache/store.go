package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store is the backend-neutral cache client. Values are JSON-encoded by the
// implementations; Get returns errors.ErrCacheMiss when the key is absent.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open attaches a client for the resolved backend. A backend that fails to
// initialise degrades to the Null store so startup never fails on cache
// availability.
func Open(cfg Config, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case TypeRedis:
		store, err = newRedisStore(cfg)
	case TypeMemcached:
		store, err = newMemcachedStore(cfg)
	case TypeFileSystem:
		store, err = newFileSystemStore(cfg)
	default:
		return NewNullStore()
	}

	if err != nil {
		logger.Warn("cache backend unavailable, using null cache",
			zap.String("backend", string(cfg.Type)), zap.Error(err))
		return NewNullStore()
	}
	return store
}
