package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/pkg/config"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type masterClassRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.MasterClass, error)
	ListUpcoming(ctx context.Context, publicOnly bool, now time.Time) ([]models.MasterClass, error)
	Create(ctx context.Context, mc *models.MasterClass) error
	Update(ctx context.Context, mc *models.MasterClass) error
	CreateEnrollment(ctx context.Context, enrollment *models.MasterClassEnrollment) error
	FindEnrollmentByID(ctx context.Context, id string) (*models.MasterClassEnrollment, error)
	SetEnrollmentActive(ctx context.Context, id string, active bool) error
	ExistsEnrollment(ctx context.Context, userID, masterClassID string) (bool, error)
}

type masterClassPaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	MarkCompleted(ctx context.Context, id, externalRef string) (bool, error)
}

// CreateMasterClassRequest describes a live event.
type CreateMasterClassRequest struct {
	Slug        string    `json:"slug" validate:"required,lowercase,max=64"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" validate:"gte=0"`
	Paid        bool      `json:"paid"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	MeetingURL  string    `json:"meeting_url"`
	Public      bool      `json:"public"`
}

// MasterClassService manages scheduled live events.
type MasterClassService struct {
	repo      masterClassRepository
	payments  masterClassPaymentRepository
	site      config.SiteConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMasterClassService constructs MasterClassService.
func NewMasterClassService(repo masterClassRepository, payments masterClassPaymentRepository, site config.SiteConfig, validate *validator.Validate, logger *zap.Logger) *MasterClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MasterClassService{repo: repo, payments: payments, site: site, validator: validate, logger: logger}
}

// ListUpcoming returns future events, soonest first.
func (s *MasterClassService) ListUpcoming(ctx context.Context, publicOnly bool) ([]models.MasterClass, error) {
	classes, err := s.repo.ListUpcoming(ctx, publicOnly, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list master classes")
	}
	return classes, nil
}

// Get resolves an event by slug.
func (s *MasterClassService) Get(ctx context.Context, slug string) (*models.MasterClass, error) {
	mc, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master class")
	}
	return mc, nil
}

// Create registers a new event.
func (s *MasterClassService) Create(ctx context.Context, req CreateMasterClassRequest) (*models.MasterClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid master class payload")
	}
	if _, err := s.repo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slug already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}
	mc := &models.MasterClass{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Paid:        req.Paid,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		MeetingURL:  req.MeetingURL,
		Public:      req.Public,
	}
	if err := s.repo.Create(ctx, mc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create master class")
	}
	return mc, nil
}

// Enroll registers a user for an event. Free events finalise immediately;
// paid events create a pending payment the gateway flow completes.
func (s *MasterClassService) Enroll(ctx context.Context, userID, slug string) (*models.MasterClassEnrollment, *models.Payment, error) {
	mc, err := s.Get(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if time.Now().UTC().After(mc.EndsAt) {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "master class has ended")
	}
	exists, err := s.repo.ExistsEnrollment(ctx, userID, mc.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this master class")
	}

	enrollment := &models.MasterClassEnrollment{MasterClassID: mc.ID, UserID: userID, Active: true}
	var payment *models.Payment
	if mc.Paid && mc.Price > 0 {
		payment = &models.Payment{
			UserID:   userID,
			CourseID: mc.ID,
			Amount:   mc.Price,
			Currency: s.site.Currency,
			Status:   models.PaymentStatusPending,
			Method:   models.PaymentMethodPayPal,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
		}
		enrollment.PaymentID = &payment.ID
		enrollment.Active = false
	}
	if err := s.repo.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	s.logger.Info("master class enrollment created", zap.String("user_id", userID), zap.String("slug", slug))
	return enrollment, payment, nil
}

// VerifyGatewaySignature checks the HMAC on a gateway callback for a master
// class payment.
func (s *MasterClassService) VerifyGatewaySignature(enrollmentID, externalRef, signature string) bool {
	return verifyGatewaySignature(s.site.PaymentWebhookSecret, enrollmentID, externalRef, signature)
}

// ConfirmPayment activates a paid master class seat once the gateway reports
// the payment completed. Duplicate callbacks are a no-op.
func (s *MasterClassService) ConfirmPayment(ctx context.Context, enrollmentID, externalRef string) (*models.MasterClassEnrollment, error) {
	if externalRef == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "external payment reference required")
	}
	enrollment, err := s.repo.FindEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Active {
		return enrollment, nil
	}
	if enrollment.PaymentID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment has no payment")
	}
	confirmed, err := s.payments.MarkCompleted(ctx, *enrollment.PaymentID, externalRef)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm payment")
	}
	if !confirmed {
		return nil, appErrors.Clone(appErrors.ErrPaymentRequired, "payment is not pending")
	}
	if err := s.repo.SetEnrollmentActive(ctx, enrollment.ID, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate enrollment")
	}
	enrollment.Active = true
	s.logger.Info("master class payment confirmed", zap.String("enrollment_id", enrollment.ID))
	return enrollment, nil
}
