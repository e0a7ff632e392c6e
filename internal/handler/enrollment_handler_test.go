package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/middleware"
	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/internal/service"
	"github.com/now-lms/lms-api/pkg/config"
)

type stubEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	activated   []string
}

func (s *stubEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (s *stubEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := s.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubEnrollmentRepo) ExistsActive(ctx context.Context, userID, courseID string) (bool, error) {
	return false, nil
}

func (s *stubEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return nil
}

func (s *stubEnrollmentRepo) SetActive(ctx context.Context, id string, active bool) error {
	e, ok := s.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Active = active
	s.enrollments[id] = e
	s.activated = append(s.activated, id)
	return nil
}

type stubCouponRepo struct{}

func (s *stubCouponRepo) FindByCode(ctx context.Context, courseID, code string) (*models.Coupon, error) {
	return nil, sql.ErrNoRows
}

func (s *stubCouponRepo) IncrementUses(ctx context.Context, id string) (bool, error) {
	return true, nil
}

type stubPaymentRepo struct {
	payments map[string]models.Payment
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := s.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) error { return nil }

func (s *stubPaymentRepo) MarkCompleted(ctx context.Context, id, externalRef string) (bool, error) {
	p, ok := s.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusCompleted
	s.payments[id] = p
	return true, nil
}

func (s *stubPaymentRepo) MarkCancelled(ctx context.Context, id string) error { return nil }

type stubCourseReader struct{}

func (s *stubCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	return nil, sql.ErrNoRows
}

type stubUserReader struct{}

func (s *stubUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

const confirmTestSecret = "hook-secret"

// newConfirmFixture builds a router exposing the confirm and cancel routes the
// way the real router does, with an optional pre-authenticated caller.
func newConfirmFixture(claims *models.JWTClaims) (*stubEnrollmentRepo, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	paymentID := "p1"
	repo := &stubEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", UserID: "u1", CourseID: "c1", Mode: models.EnrollmentModePaid, Active: false, PaymentID: &paymentID},
	}}
	payments := &stubPaymentRepo{payments: map[string]models.Payment{
		"p1": {ID: "p1", UserID: "u1", Status: models.PaymentStatusPending},
	}}
	svc := service.NewEnrollmentService(repo, &stubCourseReader{}, &stubCouponRepo{}, payments, &stubUserReader{},
		config.SiteConfig{PaymentWebhookSecret: confirmTestSecret}, nil, zap.NewNop())
	h := NewEnrollmentHandler(svc)

	r := gin.New()
	attach := func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
	}
	r.POST("/api/v1/enrollments/:id/confirm", attach, h.Confirm)
	r.POST("/api/v1/enrollments/:id/cancel", attach, h.Cancel)
	return repo, r
}

func postConfirm(r *gin.Engine, id, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments/"+id+"/confirm", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(PaymentSignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConfirmRejectsAnonymousCallback(t *testing.T) {
	repo, r := newConfirmFixture(nil)

	w := postConfirm(r, "e1", `{"external_ref":"gw-1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.activated)
	assert.False(t, repo.enrollments["e1"].Active)
}

func TestConfirmRejectsForgedSignature(t *testing.T) {
	repo, r := newConfirmFixture(nil)

	w := postConfirm(r, "e1", `{"external_ref":"gw-1"}`, "deadbeef")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, repo.activated)

	// A signature over a different reference must not transfer.
	stolen := service.SignGatewayCallback(confirmTestSecret, "e1", "other-ref")
	w = postConfirm(r, "e1", `{"external_ref":"gw-1"}`, stolen)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, repo.activated)
}

func TestConfirmAcceptsGatewaySignature(t *testing.T) {
	repo, r := newConfirmFixture(nil)

	sig := service.SignGatewayCallback(confirmTestSecret, "e1", "gw-1")
	w := postConfirm(r, "e1", `{"external_ref":"gw-1"}`, sig)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"e1"}, repo.activated)
	assert.True(t, repo.enrollments["e1"].Active)
}

func TestConfirmAllowsAdmin(t *testing.T) {
	repo, r := newConfirmFixture(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	w := postConfirm(r, "e1", `{"external_ref":"manual-1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"e1"}, repo.activated)
}

func TestConfirmRejectsNonAdminCaller(t *testing.T) {
	repo, r := newConfirmFixture(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	w := postConfirm(r, "e1", `{"external_ref":"gw-1"}`, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, repo.activated)
}

func TestCancelRequiresAuthentication(t *testing.T) {
	_, r := newConfirmFixture(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments/e1/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
