package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/now-lms/lms-api/internal/models"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	byEmail       map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	verified      []string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         map[string]*models.User{},
		byEmail:       map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (m *mockAuthRepo) addUser(u *models.User) {
	m.users[u.ID] = u
	m.byEmail[u.Email] = u
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.addUser(user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) MarkEmailVerified(ctx context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.EmailVerified = true
	}
	m.verified = append(m.verified, id)
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "lms-api",
	})
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	user, token, err := svc.Register(context.Background(), RegisterRequest{Email: "ada@example.com", Password: "secret1", FullName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, user.EmailVerified)
	require.NotEmpty(t, token)

	err = svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, repo.users[user.ID].EmailVerified)

	// Verification is idempotent.
	err = svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, []string{user.ID}, repo.verified)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "ada@example.com"})
	svc := newAuthService(repo)

	_, _, err := svc.Register(context.Background(), RegisterRequest{Email: "ada@example.com", Password: "secret1", FullName: "Ada"})
	require.Error(t, err)
}

func TestVerifyTokenRejectedForAccess(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	_, token, err := svc.Register(context.Background(), RegisterRequest{Email: "ada@example.com", Password: "secret1", FullName: "Ada"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestLoginAndRefresh(t *testing.T) {
	repo := newMockAuthRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.addUser(&models.User{ID: "u1", Email: "ada@example.com", PasswordHash: string(hash), FullName: "Ada", Role: models.RoleStudent, Active: true})
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The consumed token is revoked and cannot be reused.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.addUser(&models.User{ID: "u1", Email: "ada@example.com", PasswordHash: string(hash), Active: true})
	svc := newAuthService(repo)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
}
