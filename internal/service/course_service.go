package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	ListSections(ctx context.Context, courseID string) ([]models.CourseSection, error)
	CreateSection(ctx context.Context, section *models.CourseSection) error
	ListResources(ctx context.Context, courseID string) ([]models.CourseResource, error)
	CreateResource(ctx context.Context, resource *models.CourseResource) error
}

// CreateCourseRequest describes course creation.
type CreateCourseRequest struct {
	Code                string  `json:"code" validate:"required,alphanum,max=32"`
	Title               string  `json:"title" validate:"required"`
	Description         string  `json:"description"`
	Level               int     `json:"level" validate:"gte=0,lte=5"`
	Price               float64 `json:"price" validate:"gte=0"`
	Paid                bool    `json:"paid"`
	Auditable           bool    `json:"auditable"`
	Certificate         bool    `json:"certificate"`
	CertificateTemplate string  `json:"certificate_template"`
	Public              bool    `json:"public"`
}

// UpdateCourseRequest describes editable course fields.
type UpdateCourseRequest struct {
	Title               string              `json:"title" validate:"required"`
	Description         string              `json:"description"`
	Level               int                 `json:"level" validate:"gte=0,lte=5"`
	Price               float64             `json:"price" validate:"gte=0"`
	Paid                bool                `json:"paid"`
	Auditable           bool                `json:"auditable"`
	Certificate         bool                `json:"certificate"`
	CertificateTemplate string              `json:"certificate_template"`
	Public              bool                `json:"public"`
	Status              models.CourseStatus `json:"status" validate:"required,oneof=DRAFT OPEN CLOSED"`
}

// CreateSectionRequest adds a section to a course.
type CreateSectionRequest struct {
	Name     string `json:"name" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

// CreateResourceRequest adds a resource to a section.
type CreateResourceRequest struct {
	SectionID   string                     `json:"section_id" validate:"required"`
	Name        string                     `json:"name" validate:"required"`
	Type        models.ResourceType        `json:"type" validate:"required,oneof=youtube pdf text audio meet link"`
	Requirement models.ResourceRequirement `json:"requirement" validate:"required,oneof=required optional substitute"`
	Position    int                        `json:"position" validate:"gte=0"`
	URL         string                     `json:"url"`
}

const catalogCachePattern = "catalog:*"

// CourseService manages the catalog. Public listings flow through the cache;
// every write invalidates the catalog keys.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService. cache may be nil.
func NewCourseService(repo courseRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 90 * time.Second
	}
	return &CourseService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type catalogPage struct {
	Courses    []models.Course    `json:"courses"`
	Pagination *models.Pagination `json:"pagination"`
}

// ListPublic returns the public catalog, served from cache when possible.
// The boolean reports whether the page came from cache.
func (s *CourseService) ListPublic(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, bool, error) {
	filter.PublicOnly = true
	filter.Status = models.CourseStatusOpen

	key := fmt.Sprintf("catalog:p%d:s%d:q%s", filter.Page, filter.PageSize, filter.Search)
	var cached catalogPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Courses, cached.Pagination, true, nil
	}

	courses, pagination, err := s.List(ctx, filter)
	if err != nil {
		return nil, nil, false, err
	}
	if err := s.cache.Set(ctx, key, catalogPage{Courses: courses, Pagination: pagination}, s.cacheTTL); err != nil {
		s.logger.Debug("catalog cache set failed", zap.Error(err))
	}
	return courses, pagination, false, nil
}

// List returns courses with pagination metadata, bypassing the cache.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one course by identifier.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new draft course owned by the instructor.
func (s *CourseService) Create(ctx context.Context, instructorID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	course := &models.Course{
		Code:                req.Code,
		Title:               req.Title,
		Description:         req.Description,
		Level:               req.Level,
		Price:               req.Price,
		Paid:                req.Paid,
		Auditable:           req.Auditable,
		Certificate:         req.Certificate,
		CertificateTemplate: req.CertificateTemplate,
		Status:              models.CourseStatusDraft,
		Public:              req.Public,
		InstructorID:        instructorID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateCatalog(ctx)
	return course, nil
}

// Update edits a course. Only the owning instructor or an admin may call this;
// the handler enforces that.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Title = req.Title
	course.Description = req.Description
	course.Level = req.Level
	course.Price = req.Price
	course.Paid = req.Paid
	course.Auditable = req.Auditable
	course.Certificate = req.Certificate
	course.CertificateTemplate = req.CertificateTemplate
	course.Public = req.Public
	course.Status = req.Status
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateCatalog(ctx)
	return course, nil
}

// Sections lists a course's sections in display order.
func (s *CourseService) Sections(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	sections, err := s.repo.ListSections(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// AddSection appends a section to a course.
func (s *CourseService) AddSection(ctx context.Context, courseID string, req CreateSectionRequest) (*models.CourseSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	section := &models.CourseSection{CourseID: courseID, Name: req.Name, Position: req.Position}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// Resources lists a course's resources in display order.
func (s *CourseService) Resources(ctx context.Context, courseID string) ([]models.CourseResource, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	resources, err := s.repo.ListResources(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return resources, nil
}

// AddResource appends a resource to a section.
func (s *CourseService) AddResource(ctx context.Context, courseID string, req CreateResourceRequest) (*models.CourseResource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	resource := &models.CourseResource{
		CourseID:    courseID,
		SectionID:   req.SectionID,
		Name:        req.Name,
		Type:        req.Type,
		Requirement: req.Requirement,
		Position:    req.Position,
		URL:         req.URL,
	}
	if err := s.repo.CreateResource(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	return resource, nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePattern); err != nil {
		s.logger.Debug("catalog cache invalidation failed", zap.Error(err))
	}
}
