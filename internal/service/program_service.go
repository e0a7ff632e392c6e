package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type programRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	List(ctx context.Context, publicOnly bool) ([]models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	ListCourses(ctx context.Context, programID string) ([]models.ProgramCourse, error)
	AddCourse(ctx context.Context, link models.ProgramCourse) error
	CreateEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error
	ExistsEnrollment(ctx context.Context, userID, programID string) (bool, error)
}

// CreateProgramRequest describes program creation.
type CreateProgramRequest struct {
	Code        string  `json:"code" validate:"required,alphanum,max=32"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Public      bool    `json:"public"`
	Open        bool    `json:"open"`
}

// ProgramService manages course bundles. Program enrollment in this layer is
// free-only; paid programs enroll course by course.
type ProgramService struct {
	repo      programRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs ProgramService.
func NewProgramService(repo programRepository, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, validator: validate, logger: logger}
}

// List returns programs for the catalog.
func (s *ProgramService) List(ctx context.Context, publicOnly bool) ([]models.Program, error) {
	programs, err := s.repo.List(ctx, publicOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get returns a program with its course links.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, []models.ProgramCourse, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	courses, err := s.repo.ListCourses(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list program courses")
	}
	return program, courses, nil
}

// Create registers a new program.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program := &models.Program{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Public:      req.Public,
		Open:        req.Open,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	return program, nil
}

// AddCourse links a course into a program at the given position.
func (s *ProgramService) AddCourse(ctx context.Context, programID, courseID string, position int) error {
	if _, err := s.repo.FindByID(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	link := models.ProgramCourse{ProgramID: programID, CourseID: courseID, Position: position}
	if err := s.repo.AddCourse(ctx, link); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add course to program")
	}
	return nil
}

// Enroll registers a user into a free, open program.
func (s *ProgramService) Enroll(ctx context.Context, userID, programID string) (*models.ProgramEnrollment, error) {
	program, err := s.repo.FindByID(ctx, programID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if !program.Open {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "program is not open for enrollment")
	}
	if program.Price > 0 {
		return nil, appErrors.Clone(appErrors.ErrPaymentRequired, "paid programs enroll course by course")
	}
	exists, err := s.repo.ExistsEnrollment(ctx, userID, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this program")
	}
	enrollment := &models.ProgramEnrollment{ProgramID: programID, UserID: userID, Active: true}
	if err := s.repo.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll in program")
	}
	s.logger.Info("program enrollment created", zap.String("user_id", userID), zap.String("program_id", programID))
	return enrollment, nil
}
