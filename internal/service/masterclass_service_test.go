package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/pkg/config"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type mockMasterClassRepo struct {
	classes     map[string]*models.MasterClass
	enrollments map[string]models.MasterClassEnrollment
}

func (m *mockMasterClassRepo) FindBySlug(ctx context.Context, slug string) (*models.MasterClass, error) {
	if mc, ok := m.classes[slug]; ok {
		return mc, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMasterClassRepo) ListUpcoming(ctx context.Context, publicOnly bool, now time.Time) ([]models.MasterClass, error) {
	var list []models.MasterClass
	for _, mc := range m.classes {
		if mc.EndsAt.After(now) && (!publicOnly || mc.Public) {
			list = append(list, *mc)
		}
	}
	return list, nil
}

func (m *mockMasterClassRepo) Create(ctx context.Context, mc *models.MasterClass) error {
	if mc.ID == "" {
		mc.ID = "mc-" + mc.Slug
	}
	if m.classes == nil {
		m.classes = make(map[string]*models.MasterClass)
	}
	m.classes[mc.Slug] = mc
	return nil
}

func (m *mockMasterClassRepo) Update(ctx context.Context, mc *models.MasterClass) error {
	m.classes[mc.Slug] = mc
	return nil
}

func (m *mockMasterClassRepo) CreateEnrollment(ctx context.Context, enrollment *models.MasterClassEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "new-seat"
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.MasterClassEnrollment)
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockMasterClassRepo) FindEnrollmentByID(ctx context.Context, id string) (*models.MasterClassEnrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMasterClassRepo) SetEnrollmentActive(ctx context.Context, id string, active bool) error {
	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Active = active
	m.enrollments[id] = e
	return nil
}

func (m *mockMasterClassRepo) ExistsEnrollment(ctx context.Context, userID, masterClassID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.UserID == userID && e.MasterClassID == masterClassID {
			return true, nil
		}
	}
	return false, nil
}

func newMasterClassFixture(site config.SiteConfig) (*mockMasterClassRepo, *mockPaymentRepo, *MasterClassService) {
	now := time.Now().UTC()
	repo := &mockMasterClassRepo{classes: map[string]*models.MasterClass{
		"go-live": {ID: "mc1", Slug: "go-live", Title: "Go Live", Paid: false, Public: true, StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)},
		"go-pro":  {ID: "mc2", Slug: "go-pro", Title: "Go Pro", Paid: true, Price: 50, Public: true, StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)},
	}}
	payments := &mockPaymentRepo{}
	svc := NewMasterClassService(repo, payments, site, validator.New(), zap.NewNop())
	return repo, payments, svc
}

func TestMasterClassEnrollFreeIsActive(t *testing.T) {
	_, payments, svc := newMasterClassFixture(config.SiteConfig{Currency: "USD"})

	enrollment, payment, err := svc.Enroll(context.Background(), "u1", "go-live")
	require.NoError(t, err)
	assert.True(t, enrollment.Active)
	assert.Nil(t, payment)
	assert.Empty(t, payments.payments)
}

func TestMasterClassEnrollPaidPendsUntilConfirmed(t *testing.T) {
	repo, payments, svc := newMasterClassFixture(config.SiteConfig{Currency: "USD"})

	enrollment, payment, err := svc.Enroll(context.Background(), "u1", "go-pro")
	require.NoError(t, err)
	assert.False(t, enrollment.Active)
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, 50.0, payment.Amount)
	assert.Equal(t, "USD", payment.Currency)

	confirmed, err := svc.ConfirmPayment(context.Background(), enrollment.ID, "gw-900")
	require.NoError(t, err)
	assert.True(t, confirmed.Active)
	assert.Contains(t, payments.completed, payment.ID)
	assert.True(t, repo.enrollments[enrollment.ID].Active)

	// A duplicate gateway callback is a no-op.
	confirmed, err = svc.ConfirmPayment(context.Background(), enrollment.ID, "gw-900")
	require.NoError(t, err)
	assert.True(t, confirmed.Active)
	assert.Len(t, payments.completed, 1)
}

func TestMasterClassConfirmRequiresExternalRef(t *testing.T) {
	_, payments, svc := newMasterClassFixture(config.SiteConfig{Currency: "USD"})

	enrollment, _, err := svc.Enroll(context.Background(), "u1", "go-pro")
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), enrollment.ID, "")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, payments.completed)
}

func TestMasterClassConfirmUnknownEnrollment(t *testing.T) {
	_, _, svc := newMasterClassFixture(config.SiteConfig{})

	_, err := svc.ConfirmPayment(context.Background(), "missing", "gw-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMasterClassEnrollAfterEnd(t *testing.T) {
	repo, _, svc := newMasterClassFixture(config.SiteConfig{})
	past := time.Now().UTC().Add(-time.Hour)
	repo.classes["go-live"].EndsAt = past

	_, _, err := svc.Enroll(context.Background(), "u1", "go-live")
	require.Error(t, err)
}
