package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type couponAdminRepository interface {
	FindByCode(ctx context.Context, courseID, code string) (*models.Coupon, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id string) error
}

// CreateCouponRequest describes coupon creation by an instructor.
type CreateCouponRequest struct {
	Code          string              `json:"code" validate:"required,min=3,max=32"`
	DiscountType  models.DiscountType `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64             `json:"discount_value" validate:"required,gt=0"`
	MaxUses       *int                `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
}

// CouponService manages coupons for paid courses.
type CouponService struct {
	coupons   couponAdminRepository
	courses   enrollmentCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCouponService constructs CouponService.
func NewCouponService(coupons couponAdminRepository, courses enrollmentCourseReader, validate *validator.Validate, logger *zap.Logger) *CouponService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{coupons: coupons, courses: courses, validator: validate, logger: logger}
}

// List returns all coupons of a course.
func (s *CouponService) List(ctx context.Context, courseID string) ([]models.Coupon, error) {
	coupons, err := s.coupons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coupons")
	}
	return coupons, nil
}

// Create registers a coupon on a paid course.
func (s *CouponService) Create(ctx context.Context, courseID string, req CreateCouponRequest) (*models.Coupon, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}
	if req.DiscountType == models.DiscountPercentage && req.DiscountValue > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "percentage discount cannot exceed 100")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.IsFree() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coupons only apply to paid courses")
	}
	if _, err := s.coupons.FindByCode(ctx, courseID, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "coupon code already exists for this course")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coupon code")
	}

	coupon := &models.Coupon{
		CourseID:      courseID,
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxUses:       req.MaxUses,
		ExpiresAt:     req.ExpiresAt,
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coupon")
	}
	s.logger.Info("coupon created", zap.String("course_id", courseID), zap.String("code", coupon.Code))
	return coupon, nil
}

// Delete removes a coupon. Historical redemptions keep their payment rows.
func (s *CouponService) Delete(ctx context.Context, id string) error {
	if err := s.coupons.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete coupon")
	}
	return nil
}
