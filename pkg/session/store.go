package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound signals an absent or expired session.
var ErrNotFound = errors.New("session not found")

// Session is one authenticated browser session shared across workers.
type Session struct {
	Token     string            `db:"token" json:"token"`
	UserID    string            `db:"user_id" json:"user_id"`
	Data      map[string]string `db:"-" json:"data,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	ExpiresAt time.Time         `db:"expires_at" json:"expires_at"`
}

// Store persists sessions for multi-worker deployments.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, token string) error
	Close() error
}

// Open attaches the store for the resolved strategy. TypeDefault returns a
// nil store: callers fall back to plain signed cookies.
func Open(ctx context.Context, cfg Config, db DB, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Type {
	case TypeRedis:
		store, err := newRedisStore(ctx, cfg)
		if err != nil {
			logger.Warn("redis session store unavailable, falling back to database sessions", zap.Error(err))
			return newDatabaseStore(ctx, cfg, db, logger)
		}
		return store, nil
	case TypeDatabase:
		return newDatabaseStore(ctx, cfg, db, logger)
	default:
		return nil, nil
	}
}

// Signer produces and checks the HMAC that makes session cookies tamper-proof.
type Signer struct {
	secret []byte
}

// NewSigner builds a cookie signer from the application secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns "<token>.<signature>" suitable for a cookie value.
func (s *Signer) Sign(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(token))
	return token + "." + hex.EncodeToString(mac.Sum(nil))
}

// Verify splits and validates a signed cookie value, returning the raw token.
func (s *Signer) Verify(signed string) (string, error) {
	idx := strings.LastIndex(signed, ".")
	if idx <= 0 {
		return "", fmt.Errorf("malformed session cookie")
	}
	token, signature := signed[:idx], signed[idx+1:]

	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(token))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", fmt.Errorf("invalid session cookie signature")
	}
	return token, nil
}
