package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/pkg/session"
)

type memorySessionStore struct {
	sessions map[string]*session.Session
}

func (m *memorySessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	return nil, session.ErrNotFound
}

func (m *memorySessionStore) Save(ctx context.Context, s *session.Session) error {
	if m.sessions == nil {
		m.sessions = make(map[string]*session.Session)
	}
	m.sessions[s.Token] = s
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *memorySessionStore) Close() error { return nil }

type stubClaimsResolver struct {
	claims map[string]*models.JWTClaims
}

func (s *stubClaimsResolver) ClaimsForUser(ctx context.Context, userID string) (*models.JWTClaims, error) {
	if c, ok := s.claims[userID]; ok {
		return c, nil
	}
	return nil, session.ErrNotFound
}

func newSessionFixture(t *testing.T) (*memorySessionStore, *session.Signer, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memorySessionStore{sessions: map[string]*session.Session{}}
	signer := session.NewSigner("cookie-secret")
	users := &stubClaimsResolver{claims: map[string]*models.JWTClaims{
		"u1": {UserID: "u1", Role: models.RoleStudent, Email: "u1@example.com"},
	}}
	sessions := NewSessions(store, signer, users)
	require.NotNil(t, sessions)

	r := gin.New()
	r.GET("/me", JWT(nil, sessions), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return store, signer, r
}

func getWithCookie(r *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionCookieResolvesClaims(t *testing.T) {
	store, signer, r := newSessionFixture(t)
	now := time.Now().UTC()
	store.sessions["tok-1"] = &session.Session{Token: "tok-1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	w := getWithCookie(r, signer.Sign("tok-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestSessionCookieTamperedSignature(t *testing.T) {
	store, _, r := newSessionFixture(t)
	now := time.Now().UTC()
	store.sessions["tok-1"] = &session.Session{Token: "tok-1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	forged := session.NewSigner("other-secret").Sign("tok-1")
	w := getWithCookie(r, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionCookieUnknownToken(t *testing.T) {
	_, signer, r := newSessionFixture(t)

	w := getWithCookie(r, signer.Sign("tok-missing"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionCookieExpired(t *testing.T) {
	store, signer, r := newSessionFixture(t)
	now := time.Now().UTC()
	store.sessions["tok-1"] = &session.Session{Token: "tok-1", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}

	w := getWithCookie(r, signer.Sign("tok-1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMissingCookie(t *testing.T) {
	_, _, r := newSessionFixture(t)

	w := getWithCookie(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionResolverUnconfigured(t *testing.T) {
	// With no store a nil resolver comes back and the cookie path is simply
	// closed, bearer auth still runs.
	assert.Nil(t, NewSessions(nil, session.NewSigner("s"), &stubClaimsResolver{}))

	var sessions *Sessions
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, sessions.Resolve(c))
}
