package cache

import (
	"context"
	"time"

	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

// nullStore accepts every write and misses every read. It exists so the rest
// of the application never needs a nil check on the cache.
type nullStore struct{}

// NewNullStore returns the no-op cache backend.
func NewNullStore() Store {
	return nullStore{}
}

func (nullStore) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (nullStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (nullStore) Delete(ctx context.Context, key string) error {
	return nil
}

func (nullStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func (nullStore) Ping(ctx context.Context) error {
	return nil
}

func (nullStore) Close() error {
	return nil
}
