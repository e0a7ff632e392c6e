package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

// memcachedStore serves cache operations from a memcached pool.
type memcachedStore struct {
	client *memcache.Client
	prefix string
	ttl    time.Duration
}

func newMemcachedStore(cfg Config) (*memcachedStore, error) {
	client := memcache.New(cfg.MemcachedServers...)
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("memcached ping: %w", err)
	}
	return &memcachedStore{client: client, prefix: cfg.KeyPrefix, ttl: cfg.DefaultTTL}, nil
}

func (s *memcachedStore) Get(ctx context.Context, key string, dest interface{}) error {
	item, err := s.client.Get(s.prefix + key)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("memcached get %s: %w", key, err)
	}

	if err := json.Unmarshal(item.Value, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

func (s *memcachedStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	item := &memcache.Item{
		Key:        s.prefix + key,
		Value:      payload,
		Expiration: int32(ttl / time.Second),
	}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("memcached set %s: %w", key, err)
	}

	return nil
}

func (s *memcachedStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Delete(s.prefix + key); err != nil && err != memcache.ErrCacheMiss {
		return fmt.Errorf("memcached delete %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern flushes the pool. Memcached cannot enumerate keys, so
// pattern invalidation degrades to a full flush.
func (s *memcachedStore) DeleteByPattern(ctx context.Context, pattern string) error {
	if err := s.client.FlushAll(); err != nil {
		return fmt.Errorf("memcached flush: %w", err)
	}
	return nil
}

func (s *memcachedStore) Ping(ctx context.Context) error {
	return s.client.Ping()
}

func (s *memcachedStore) Close() error {
	return nil
}
