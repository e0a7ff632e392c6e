package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/now-lms/lms-api/internal/models"
)

// CourseRepository handles persistence of courses, sections and resources.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, code, title, description, level, price, paid, auditable, certificate, certificate_template, status, public, instructor_id, created_at, updated_at`

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode returns a course by its unique code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.PublicOnly {
		conditions = append(conditions, "public = TRUE")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "created_at",
		"title":      "title",
		"price":      "price",
		"level":      "level",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, base+clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
	const query = `INSERT INTO courses (id, code, title, description, level, price, paid, auditable, certificate, certificate_template, status, public, instructor_id, created_at, updated_at)
        VALUES (:id, :code, :title, :description, :level, :price, :paid, :auditable, :certificate, :certificate_template, :status, :public, :instructor_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update persists mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, level = :level, price = :price, paid = :paid,
        auditable = :auditable, certificate = :certificate, certificate_template = :certificate_template, status = :status,
        public = :public, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// ListSections returns the ordered sections of a course.
func (r *CourseRepository) ListSections(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	const query = `SELECT id, course_id, name, position, created_at FROM course_sections WHERE course_id = $1 ORDER BY position ASC`
	var sections []models.CourseSection
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// CreateSection appends a section to a course.
func (r *CourseRepository) CreateSection(ctx context.Context, section *models.CourseSection) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_sections (id, course_id, name, position, created_at) VALUES (:id, :course_id, :name, :position, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// ListResources returns the resources of a course ordered by section position.
func (r *CourseRepository) ListResources(ctx context.Context, courseID string) ([]models.CourseResource, error) {
	const query = `SELECT r.id, r.course_id, r.section_id, r.name, r.type, r.requirement, r.position, r.url, r.created_at
        FROM course_resources r
        JOIN course_sections s ON s.id = r.section_id
        WHERE r.course_id = $1
        ORDER BY s.position ASC, r.position ASC`
	var resources []models.CourseResource
	if err := r.db.SelectContext(ctx, &resources, query, courseID); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

// FindResource returns one resource by ID.
func (r *CourseRepository) FindResource(ctx context.Context, id string) (*models.CourseResource, error) {
	const query = `SELECT id, course_id, section_id, name, type, requirement, position, url, created_at FROM course_resources WHERE id = $1`
	var resource models.CourseResource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// CreateResource appends a resource to a section.
func (r *CourseRepository) CreateResource(ctx context.Context, resource *models.CourseResource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}
	if resource.Requirement == "" {
		resource.Requirement = models.RequirementRequired
	}
	const query = `INSERT INTO course_resources (id, course_id, section_id, name, type, requirement, position, url, created_at)
        VALUES (:id, :course_id, :section_id, :name, :type, :requirement, :position, :url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// CountRequiredResources returns how many required resources a course has.
func (r *CourseRepository) CountRequiredResources(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM course_resources WHERE course_id = $1 AND requirement = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, models.RequirementRequired); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count required resources: %w", err)
	}
	return count, nil
}
