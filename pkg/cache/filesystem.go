package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

// fileSystemStore keeps JSON envelopes on a local (preferably RAM-backed)
// filesystem. Suitable for single-host deployments where Redis and memcached
// are unavailable.
type fileSystemStore struct {
	dir    string
	prefix string
	ttl    time.Duration
}

type fileEnvelope struct {
	Key       string          `json:"key"`
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

func newFileSystemStore(cfg Config) (*fileSystemStore, error) {
	if err := probeDir(cfg.Dir); err != nil {
		return nil, fmt.Errorf("cache directory unusable: %w", err)
	}
	return &fileSystemStore{dir: cfg.Dir, prefix: cfg.KeyPrefix, ttl: cfg.DefaultTTL}, nil
}

func (s *fileSystemStore) pathFor(key string) string {
	sum := sha256.Sum256([]byte(s.prefix + key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".cache")
}

func (s *fileSystemStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("cache read %s: %w", key, err)
	}

	var envelope fileEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Corrupt entry: drop it and report a miss.
		_ = os.Remove(s.pathFor(key))
		return appErrors.ErrCacheMiss
	}

	if time.Now().After(envelope.ExpiresAt) {
		_ = os.Remove(s.pathFor(key))
		return appErrors.ErrCacheMiss
	}

	if err := json.Unmarshal(envelope.Payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

func (s *fileSystemStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	envelope, err := json.Marshal(fileEnvelope{
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal cache envelope for %s: %w", key, err)
	}

	if err := os.WriteFile(s.pathFor(key), envelope, 0o600); err != nil {
		return fmt.Errorf("cache write %s: %w", key, err)
	}

	return nil
}

func (s *fileSystemStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern matches against the original keys recorded in each envelope,
// since file names are hashes.
func (s *fileSystemStore) DeleteByPattern(ctx context.Context, pattern string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cache" {
			continue
		}
		full := filepath.Join(s.dir, entry.Name())
		raw, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		var envelope fileEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			_ = os.Remove(full)
			continue
		}
		matched, err := path.Match(pattern, envelope.Key)
		if err != nil {
			return fmt.Errorf("cache pattern %s: %w", pattern, err)
		}
		if matched {
			_ = os.Remove(full)
		}
	}

	return nil
}

func (s *fileSystemStore) Ping(ctx context.Context) error {
	return probeDir(s.dir)
}

func (s *fileSystemStore) Close() error {
	return nil
}
