package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DB is the subset of *sqlx.DB the database-backed store needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// databaseStore shares sessions across workers through the relational
// database. Expired rows are swept opportunistically: roughly once every
// CleanupEvery writes rather than on a dedicated timer.
type databaseStore struct {
	db           DB
	cleanupEvery uint64
	writes       uint64
	logger       *zap.Logger
}

const createSessionsTable = `CREATE TABLE IF NOT EXISTS lms_sessions (
	token TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	data TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL
)`

func newDatabaseStore(ctx context.Context, cfg Config, db DB, logger *zap.Logger) (*databaseStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database session store requires a database handle")
	}

	// Multiple app instances may initialise concurrently (common in test
	// suites); "already exists" from a racing CREATE is not a failure.
	if _, err := db.ExecContext(ctx, createSessionsTable); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("create sessions table: %w", err)
		}
		logger.Debug("sessions table already present", zap.Error(err))
	}

	every := uint64(cfg.CleanupEvery)
	if every == 0 {
		every = CleanupEvery
	}
	return &databaseStore{db: db, cleanupEvery: every, logger: logger}, nil
}

func (s *databaseStore) Get(ctx context.Context, token string) (*Session, error) {
	const query = `SELECT token, user_id, data, created_at, expires_at FROM lms_sessions WHERE token = $1 AND expires_at > NOW()`

	var (
		session Session
		rawData string
	)
	row := s.db.QueryRowContext(ctx, query, token)
	if err := row.Scan(&session.Token, &session.UserID, &rawData, &session.CreatedAt, &session.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}

	if rawData != "" {
		if err := json.Unmarshal([]byte(rawData), &session.Data); err != nil {
			return nil, fmt.Errorf("decode session data: %w", err)
		}
	}
	return &session, nil
}

func (s *databaseStore) Save(ctx context.Context, session *Session) error {
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(Lifetime)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	data := session.Data
	if data == nil {
		data = map[string]string{}
	}
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	const query = `INSERT INTO lms_sessions (token, user_id, data, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`
	if _, err := s.db.ExecContext(ctx, query, session.Token, session.UserID, string(rawData), session.CreatedAt, session.ExpiresAt); err != nil {
		return fmt.Errorf("session save: %w", err)
	}

	if atomic.AddUint64(&s.writes, 1)%s.cleanupEvery == 0 {
		s.cleanupExpired(ctx)
	}
	return nil
}

func (s *databaseStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lms_sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (s *databaseStore) Close() error {
	return nil
}

func (s *databaseStore) cleanupExpired(ctx context.Context) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lms_sessions WHERE expires_at <= NOW()`); err != nil && s.logger != nil {
		s.logger.Warn("session cleanup failed", zap.Error(err))
	}
}
