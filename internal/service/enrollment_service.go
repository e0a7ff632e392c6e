package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/pkg/config"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/export"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	SetActive(ctx context.Context, id string, active bool) error
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type couponRepository interface {
	FindByCode(ctx context.Context, courseID, code string) (*models.Coupon, error)
	IncrementUses(ctx context.Context, id string) (bool, error)
}

type paymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	MarkCompleted(ctx context.Context, id, externalRef string) (bool, error)
	MarkCancelled(ctx context.Context, id string) error
}

type enrollmentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PricingQuote is the result of a pricing preview. Preview never mutates
// anything; the same computation runs again at commit time.
type PricingQuote struct {
	CourseID      string         `json:"course_id"`
	OriginalPrice float64        `json:"original_price"`
	FinalPrice    float64        `json:"final_price"`
	Discount      float64        `json:"discount"`
	Coupon        *models.Coupon `json:"coupon,omitempty"`
}

// EnrollRequest describes an enrollment commit.
type EnrollRequest struct {
	CourseID   string `json:"course_id" validate:"required"`
	CouponCode string `json:"coupon_code,omitempty"`
	Audit      bool   `json:"audit,omitempty"`
	Method     string `json:"method,omitempty" validate:"omitempty,oneof=paypal stripe"`
}

// EnrollResult reports what the commit produced. Payment is non-nil only on
// the paid branch, where the enrollment stays inactive until confirmation.
type EnrollResult struct {
	Enrollment *models.Enrollment `json:"enrollment"`
	Payment    *models.Payment    `json:"payment,omitempty"`
	Quote      PricingQuote       `json:"quote"`
}

// EnrollmentService orchestrates pricing previews, enrollment commits and
// payment confirmation.
type EnrollmentService struct {
	enrollments enrollmentRepository
	courses     enrollmentCourseReader
	coupons     couponRepository
	payments    paymentRepository
	users       enrollmentUserReader
	site        config.SiteConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepository, courses enrollmentCourseReader, coupons couponRepository, payments paymentRepository, users enrollmentUserReader, site config.SiteConfig, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		coupons:     coupons,
		payments:    payments,
		users:       users,
		site:        site,
		validator:   validate,
		logger:      logger,
	}
}

// PreviewPricing resolves the price a user would pay for a course with an
// optional coupon code. It performs no writes.
func (s *EnrollmentService) PreviewPricing(ctx context.Context, userID, courseID, couponCode string) (*PricingQuote, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.priceFor(ctx, userID, course, couponCode)
}

func (s *EnrollmentService) priceFor(ctx context.Context, userID string, course *models.Course, couponCode string) (*PricingQuote, error) {
	quote := &PricingQuote{CourseID: course.ID, OriginalPrice: course.Price, FinalPrice: course.Price}
	if course.IsFree() {
		quote.OriginalPrice = 0
		quote.FinalPrice = 0
		return quote, nil
	}
	if couponCode == "" {
		return quote, nil
	}

	coupon, err := s.coupons.FindByCode(ctx, course.ID, couponCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCoupon, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coupon")
	}
	if err := coupon.Validate(time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, models.ErrCouponExpired):
			return nil, appErrors.Clone(appErrors.ErrCouponExpired, "")
		case errors.Is(err, models.ErrCouponExhausted):
			return nil, appErrors.Clone(appErrors.ErrCouponExhausted, "")
		default:
			return nil, appErrors.Clone(appErrors.ErrInvalidCoupon, "")
		}
	}

	quote.Coupon = coupon
	quote.FinalPrice = coupon.Apply(course.Price)
	quote.Discount = course.Price - quote.FinalPrice

	// A coupon that zeroes out a paid course must not become a silent way
	// around email verification for free content.
	if quote.FinalPrice == 0 && s.site.RequireEmailVerification {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
		}
		if !user.EmailVerified {
			return nil, appErrors.Clone(appErrors.ErrEmailUnverified, "")
		}
	}
	return quote, nil
}

// Enroll commits an enrollment. Free and audit branches finalise immediately;
// the paid branch creates a pending payment and leaves the enrollment
// inactive until ConfirmPayment. Coupon usage is incremented exactly once per
// redemption: here for the free branch, at confirmation for the paid branch.
func (s *EnrollmentService) Enroll(ctx context.Context, userID string, req EnrollRequest) (*EnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not open for enrollment")
	}
	exists, err := s.enrollments.ExistsActive(ctx, userID, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	if req.Audit {
		return s.enrollAudit(ctx, userID, course)
	}

	quote, err := s.priceFor(ctx, userID, course, req.CouponCode)
	if err != nil {
		return nil, err
	}
	if quote.FinalPrice == 0 {
		return s.enrollFree(ctx, userID, course, quote)
	}
	return s.enrollPaid(ctx, userID, course, quote, req.Method)
}

func (s *EnrollmentService) enrollAudit(ctx context.Context, userID string, course *models.Course) (*EnrollResult, error) {
	if !course.Auditable {
		return nil, appErrors.Clone(appErrors.ErrCourseNotAuditable, "")
	}
	payment := &models.Payment{
		UserID:   userID,
		CourseID: course.ID,
		Amount:   0,
		Currency: s.site.Currency,
		Status:   models.PaymentStatusCompleted,
		Method:   models.PaymentMethodAudit,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit payment")
	}
	enrollment := &models.Enrollment{
		CourseID:  course.ID,
		UserID:    userID,
		Active:    true,
		Mode:      models.EnrollmentModeAudit,
		PaymentID: &payment.ID,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.logger.Info("audit enrollment created", zap.String("user_id", userID), zap.String("course_id", course.ID))
	return &EnrollResult{Enrollment: enrollment, Quote: PricingQuote{CourseID: course.ID, OriginalPrice: course.Price}}, nil
}

func (s *EnrollmentService) enrollFree(ctx context.Context, userID string, course *models.Course, quote *PricingQuote) (*EnrollResult, error) {
	payment := &models.Payment{
		UserID:   userID,
		CourseID: course.ID,
		Amount:   0,
		Currency: s.site.Currency,
		Status:   models.PaymentStatusCompleted,
		Method:   models.PaymentMethodFree,
	}
	if quote.Coupon != nil {
		payment.CouponID = &quote.Coupon.ID
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record free payment")
	}
	enrollment := &models.Enrollment{
		CourseID:  course.ID,
		UserID:    userID,
		Active:    true,
		Mode:      models.EnrollmentModeFree,
		PaymentID: &payment.ID,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if quote.Coupon != nil {
		ok, err := s.coupons.IncrementUses(ctx, quote.Coupon.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem coupon")
		}
		if !ok {
			s.logger.Warn("coupon exhausted between preview and commit", zap.String("coupon_id", quote.Coupon.ID))
		}
	}
	s.logger.Info("free enrollment created", zap.String("user_id", userID), zap.String("course_id", course.ID))
	return &EnrollResult{Enrollment: enrollment, Quote: *quote}, nil
}

func (s *EnrollmentService) enrollPaid(ctx context.Context, userID string, course *models.Course, quote *PricingQuote, method string) (*EnrollResult, error) {
	paymentMethod := models.PaymentMethodPayPal
	if method == "stripe" {
		paymentMethod = models.PaymentMethodStripe
	}
	payment := &models.Payment{
		UserID:   userID,
		CourseID: course.ID,
		Amount:   quote.FinalPrice,
		Currency: s.site.Currency,
		Status:   models.PaymentStatusPending,
		Method:   paymentMethod,
	}
	if quote.Coupon != nil {
		payment.CouponID = &quote.Coupon.ID
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	enrollment := &models.Enrollment{
		CourseID:  course.ID,
		UserID:    userID,
		Active:    false,
		Mode:      models.EnrollmentModePaid,
		PaymentID: &payment.ID,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.logger.Info("pending paid enrollment created",
		zap.String("user_id", userID),
		zap.String("course_id", course.ID),
		zap.Float64("amount", quote.FinalPrice))
	return &EnrollResult{Enrollment: enrollment, Payment: payment, Quote: *quote}, nil
}

// VerifyGatewaySignature checks the HMAC a gateway callback carries against
// the shared webhook secret. Callbacks without a valid signature are rejected
// before any state changes.
func (s *EnrollmentService) VerifyGatewaySignature(enrollmentID, externalRef, signature string) bool {
	return verifyGatewaySignature(s.site.PaymentWebhookSecret, enrollmentID, externalRef, signature)
}

// ConfirmPayment finalises a paid enrollment after the gateway confirms. The
// coupon usage counter is incremented here, not at commit, so an abandoned
// checkout never consumes a redemption.
func (s *EnrollmentService) ConfirmPayment(ctx context.Context, enrollmentID, externalRef string) (*models.Enrollment, error) {
	if externalRef == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "external payment reference required")
	}
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
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
	payment, err := s.payments.FindByID(ctx, *enrollment.PaymentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	confirmed, err := s.payments.MarkCompleted(ctx, payment.ID, externalRef)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm payment")
	}
	if !confirmed {
		return nil, appErrors.Clone(appErrors.ErrPaymentRequired, "payment is not pending")
	}
	if err := s.enrollments.SetActive(ctx, enrollment.ID, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate enrollment")
	}
	enrollment.Active = true
	if payment.CouponID != nil {
		ok, err := s.coupons.IncrementUses(ctx, *payment.CouponID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem coupon")
		}
		if !ok {
			s.logger.Warn("coupon exhausted before payment confirmation", zap.String("coupon_id", *payment.CouponID))
		}
	}
	s.logger.Info("payment confirmed", zap.String("enrollment_id", enrollment.ID), zap.String("payment_id", payment.ID))
	return enrollment, nil
}

// CancelPayment voids a pending paid enrollment. Only the enrollee or an
// admin may abandon the checkout.
func (s *EnrollmentService) CancelPayment(ctx context.Context, enrollmentID, callerID string, callerRole models.UserRole) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.UserID != callerID && callerRole != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another user")
	}
	if enrollment.Active || enrollment.PaymentID == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not pending payment")
	}
	if err := s.payments.MarkCancelled(ctx, *enrollment.PaymentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel payment")
	}
	return nil
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// ExportCSV renders the filtered enrollment list as CSV for reporting.
func (s *EnrollmentService) ExportCSV(ctx context.Context, filter models.EnrollmentFilter) ([]byte, error) {
	filter.Page = 1
	if filter.PageSize <= 0 {
		filter.PageSize = 10000
	}
	enrollments, _, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	table := export.Table{
		Columns: []string{"enrollment_id", "student", "course", "mode", "active", "amount_paid", "enrolled_at"},
	}
	for _, e := range enrollments {
		if err := table.Append(
			e.ID,
			e.StudentName,
			e.CourseTitle,
			string(e.Mode),
			strconv.FormatBool(e.Active),
			strconv.FormatFloat(e.AmountPaid, 'f', 2, 64),
			e.CreatedAt.Format(time.RFC3339),
		); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build enrollment export")
		}
	}

	data, err := table.CSV()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render enrollment export")
	}
	return data, nil
}

// Unenroll deactivates an active enrollment, keeping the row for history.
func (s *EnrollmentService) Unenroll(ctx context.Context, enrollmentID string) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already inactive")
	}
	if err := s.enrollments.SetActive(ctx, enrollmentID, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate enrollment")
	}
	return nil
}
