// Package session resolves and implements the shared session store used
// across a multi-worker deployment.
package session

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/now-lms/lms-api/pkg/config"
)

// Type tags the resolved session backend.
type Type string

const (
	// TypeDefault defers to plain signed-cookie sessions. Acceptable only for
	// testing or single-worker deployments.
	TypeDefault  Type = "default"
	TypeRedis    Type = "redis"
	TypeDatabase Type = "database"
)

const (
	// KeyPrefix is deliberately distinct from the general cache prefix so the
	// two stores can share a Redis instance without colliding.
	KeyPrefix = "lms:session:"
	// Lifetime is fixed: sessions are permanent for 24h, then expire.
	Lifetime = 24 * time.Hour
	// CleanupEvery amortises expired-row cleanup for the database store:
	// roughly one sweep per this many writes instead of a dedicated timer.
	CleanupEvery = 1000
)

// Config is the resolved session storage strategy.
type Config struct {
	Type          Type
	RedisURL      string
	KeyPrefix     string
	Lifetime      time.Duration
	SignedCookies bool
	CleanupEvery  int
}

// Env looks up an environment variable; injectable for tests.
type Env func(key string) string

// Resolve picks the session persistence strategy. Testing mode is an explicit
// escape hatch; otherwise Redis wins when configured, and the relational
// database is the shared fallback.
func Resolve(appEnv string, lookup Env) Config {
	if lookup == nil {
		lookup = os.Getenv
	}

	if appEnv == config.EnvTesting {
		return Config{Type: TypeDefault, Lifetime: Lifetime, SignedCookies: true}
	}

	base := Config{
		KeyPrefix:     KeyPrefix,
		Lifetime:      Lifetime,
		SignedCookies: true,
		CleanupEvery:  CleanupEvery,
	}

	for _, key := range []string{"SESSION_REDIS_URL", "CACHE_REDIS_URL", "REDIS_URL"} {
		if url := lookup(key); url != "" {
			base.Type = TypeRedis
			base.RedisURL = url
			return base
		}
	}

	base.Type = TypeDatabase
	return base
}

// Warnings emits operator-facing warnings for risky deployments. Nothing here
// is fatal; the deployment starts either way.
func Warnings(cfg Config, secretKey string, workers int, logger *zap.Logger) {
	if logger == nil {
		return
	}

	if secretKey == config.DefaultSecretKey {
		logger.Warn("SECRET_KEY is the insecure development default; set a real secret before going to production")
	} else if len(secretKey) < 32 {
		logger.Warn("SECRET_KEY is shorter than 32 bytes; session cookies are easier to forge",
			zap.Int("length", len(secretKey)))
	}

	if workers > 1 && cfg.Type == TypeDefault {
		logger.Warn("multiple workers configured without a shared session backend; sessions will not survive worker hops",
			zap.Int("workers", workers))
	}
}
