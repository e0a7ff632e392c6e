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

type progressRepository interface {
	FindResourceProgress(ctx context.Context, userID, resourceID string) (*models.ResourceProgress, error)
	UpsertResourceProgress(ctx context.Context, progress *models.ResourceProgress) error
	CountCompletedRequired(ctx context.Context, userID, courseID string) (int, error)
	CountCompletedSubstitutes(ctx context.Context, userID, courseID string) (int, error)
	ListByCourse(ctx context.Context, userID, courseID string) ([]models.ResourceProgress, error)
	FindCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error)
	UpsertCourseProgress(ctx context.Context, progress *models.CourseProgress) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindResource(ctx context.Context, id string) (*models.CourseResource, error)
	CountRequiredResources(ctx context.Context, courseID string) (int, error)
}

type evaluationReader interface {
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error)
	CountAttempts(ctx context.Context, evaluationID, userID string) (int, error)
	HasPassedAttempt(ctx context.Context, evaluationID, userID string) (bool, error)
	CreateAttempt(ctx context.Context, attempt *models.EvaluationAttempt) error
}

type certificateWriter interface {
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, cert *models.IssuedCertificate) error
}

// CertificateRenderer receives newly issued certificates for asynchronous PDF
// rendering. Implementations must not block.
type CertificateRenderer interface {
	EnqueueRender(cert models.IssuedCertificate)
}

// SubmitAttemptRequest carries an evaluation submission.
type SubmitAttemptRequest struct {
	EvaluationID string  `json:"evaluation_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0,lte=100"`
}

// ProgressService derives course completion from resource and evaluation
// state and issues certificates on the in_progress to completed transition.
type ProgressService struct {
	progress     progressRepository
	courses      courseReader
	evaluations  evaluationReader
	certificates certificateWriter
	renderer     CertificateRenderer
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewProgressService constructs ProgressService. renderer may be nil when PDF
// rendering is disabled.
func NewProgressService(progress progressRepository, courses courseReader, evaluations evaluationReader, certificates certificateWriter, renderer CertificateRenderer, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		progress:     progress,
		courses:      courses,
		evaluations:  evaluations,
		certificates: certificates,
		renderer:     renderer,
		validator:    validate,
		logger:       logger,
	}
}

// MarkResourceCompleted records completion of one resource and recomputes the
// course summary.
func (s *ProgressService) MarkResourceCompleted(ctx context.Context, userID, courseID, resourceID string) (*models.CourseProgress, error) {
	resource, err := s.courses.FindResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if resource.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource does not belong to course")
	}
	row := &models.ResourceProgress{
		UserID:      userID,
		CourseID:    courseID,
		ResourceID:  resourceID,
		Completed:   true,
		Requirement: resource.Requirement,
	}
	if err := s.progress.UpsertResourceProgress(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record resource progress")
	}
	return s.Recompute(ctx, userID, courseID)
}

// SubmitAttempt grades and stores an evaluation attempt, then recomputes the
// course summary.
func (s *ProgressService) SubmitAttempt(ctx context.Context, userID string, req SubmitAttemptRequest) (*models.EvaluationAttempt, *models.CourseProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	evaluation, err := s.evaluations.FindByID(ctx, req.EvaluationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	if evaluation.MaxAttempts != nil {
		used, err := s.evaluations.CountAttempts(ctx, evaluation.ID, userID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
		}
		if used >= *evaluation.MaxAttempts {
			return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "maximum attempts reached")
		}
	}
	attempt := &models.EvaluationAttempt{
		EvaluationID: evaluation.ID,
		UserID:       userID,
		Score:        req.Score,
		Passed:       req.Score >= evaluation.PassingScore,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.evaluations.CreateAttempt(ctx, attempt); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attempt")
	}
	progress, err := s.Recompute(ctx, userID, evaluation.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, progress, nil
}

// Recompute derives the (user, course) summary from scratch. A course counts
// as completed when every required resource has a completed row, with
// completed substitute resources covering any shortfall, and every evaluation
// has at least one passing attempt. A course without evaluations passes that
// half vacuously. Safe to call any number of times: a summary already marked
// completed never regresses and the certificate insert is guarded by an
// existence check.
func (s *ProgressService) Recompute(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	requiredTotal, err := s.courses.CountRequiredResources(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count required resources")
	}
	completedRequired, err := s.progress.CountCompletedRequired(ctx, userID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed resources")
	}
	resourcesDone := completedRequired >= requiredTotal
	if !resourcesDone {
		substitutes, err := s.progress.CountCompletedSubstitutes(ctx, userID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count substitute resources")
		}
		resourcesDone = completedRequired+substitutes >= requiredTotal
	}

	evaluationsPassed := true
	evaluations, err := s.evaluations.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	for _, evaluation := range evaluations {
		passed, err := s.evaluations.HasPassedAttempt(ctx, evaluation.ID, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attempts")
		}
		if !passed {
			evaluationsPassed = false
			break
		}
	}

	completed := resourcesDone && evaluationsPassed
	summary := &models.CourseProgress{UserID: userID, CourseID: courseID, Completed: completed}
	if completed {
		now := time.Now().UTC()
		summary.CompletedAt = &now
	}
	// A stored completed summary wins over a stale recomputation, so the
	// returned value always matches what the upsert keeps.
	existing, err := s.progress.FindCourseProgress(ctx, userID, courseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course progress")
	}
	if existing != nil && existing.Completed {
		summary.Completed = true
		summary.CompletedAt = existing.CompletedAt
	}
	if err := s.progress.UpsertCourseProgress(ctx, summary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course progress")
	}

	if completed && course.Certificate && course.CertificateTemplate != "" {
		if err := s.issueCertificate(ctx, userID, course); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (s *ProgressService) issueCertificate(ctx context.Context, userID string, course *models.Course) error {
	exists, err := s.certificates.Exists(ctx, userID, course.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check certificate")
	}
	if exists {
		return nil
	}
	cert := &models.IssuedCertificate{
		UserID:   userID,
		CourseID: course.ID,
		Template: course.CertificateTemplate,
	}
	if err := s.certificates.Create(ctx, cert); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue certificate")
	}
	s.logger.Info("certificate issued",
		zap.String("user_id", userID),
		zap.String("course_id", course.ID),
		zap.String("serial", cert.Serial))
	if s.renderer != nil {
		s.renderer.EnqueueRender(*cert)
	}
	return nil
}

// Summary returns the stored summary plus per-resource rows for a course.
func (s *ProgressService) Summary(ctx context.Context, userID, courseID string) (*models.CourseProgress, []models.ResourceProgress, error) {
	summary, err := s.progress.FindCourseProgress(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			summary = &models.CourseProgress{UserID: userID, CourseID: courseID}
		} else {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course progress")
		}
	}
	rows, err := s.progress.ListByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resource progress")
	}
	return summary, rows, nil
}
