package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/pkg/session"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "lms_session"

// ClaimsResolver rebuilds request claims for a session's user.
type ClaimsResolver interface {
	ClaimsForUser(ctx context.Context, userID string) (*models.JWTClaims, error)
}

// Sessions resolves signed session cookies to claims, the fallback auth
// channel for browser clients that hold no bearer token.
type Sessions struct {
	store  session.Store
	signer *session.Signer
	users  ClaimsResolver
}

// NewSessions wires the session store and cookie signer. Returns nil when no
// store is configured so callers can skip the cookie path entirely.
func NewSessions(store session.Store, signer *session.Signer, users ClaimsResolver) *Sessions {
	if store == nil || signer == nil || users == nil {
		return nil
	}
	return &Sessions{store: store, signer: signer, users: users}
}

// Resolve validates the session cookie and returns the claims for its user.
// Any failure (missing cookie, bad signature, expired or unknown session)
// yields nil.
func (s *Sessions) Resolve(c *gin.Context) *models.JWTClaims {
	if s == nil {
		return nil
	}
	signed, err := c.Cookie(SessionCookie)
	if err != nil || signed == "" {
		return nil
	}
	token, err := s.signer.Verify(signed)
	if err != nil {
		return nil
	}
	sess, err := s.store.Get(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	if !sess.ExpiresAt.IsZero() && time.Now().UTC().After(sess.ExpiresAt) {
		return nil
	}
	claims, err := s.users.ClaimsForUser(c.Request.Context(), sess.UserID)
	if err != nil {
		return nil
	}
	return claims
}
