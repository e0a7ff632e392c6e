package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/now-lms/lms-api/internal/models"
)

// ProgramRepository handles persistence of programs and their memberships.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `id, code, title, description, price, public, open, created_at`

// FindByID returns a program.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// List returns programs. When publicOnly is set only public open programs are
// returned, matching the catalog view.
func (r *ProgramRepository) List(ctx context.Context, publicOnly bool) ([]models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs`
	if publicOnly {
		query += ` WHERE public = TRUE AND open = TRUE`
	}
	query += ` ORDER BY title ASC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// Create persists a new program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO programs (id, code, title, description, price, public, open, created_at)
        VALUES (:id, :code, :title, :description, :price, :public, :open, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update persists editable program fields.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	const query = `UPDATE programs SET title = :title, description = :description,
        price = :price, public = :public, open = :open WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// ListCourses returns course identifiers of a program in display order.
func (r *ProgramRepository) ListCourses(ctx context.Context, programID string) ([]models.ProgramCourse, error) {
	const query = `SELECT program_id, course_id, position FROM program_courses
        WHERE program_id = $1 ORDER BY position ASC`
	var courses []models.ProgramCourse
	if err := r.db.SelectContext(ctx, &courses, query, programID); err != nil {
		return nil, fmt.Errorf("list program courses: %w", err)
	}
	return courses, nil
}

// AddCourse links a course into a program.
func (r *ProgramRepository) AddCourse(ctx context.Context, link models.ProgramCourse) error {
	const query = `INSERT INTO program_courses (program_id, course_id, position)
        VALUES ($1, $2, $3) ON CONFLICT (program_id, course_id) DO UPDATE SET position = EXCLUDED.position`
	if _, err := r.db.ExecContext(ctx, query, link.ProgramID, link.CourseID, link.Position); err != nil {
		return fmt.Errorf("add program course: %w", err)
	}
	return nil
}

// CreateEnrollment persists a program enrollment.
func (r *ProgramRepository) CreateEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO program_enrollments (id, program_id, user_id, active, created_at)
        VALUES (:id, :program_id, :user_id, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create program enrollment: %w", err)
	}
	return nil
}

// ExistsEnrollment reports whether the user is actively enrolled in the program.
func (r *ProgramRepository) ExistsEnrollment(ctx context.Context, userID, programID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM program_enrollments WHERE user_id = $1 AND program_id = $2 AND active = TRUE)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, programID); err != nil {
		return false, fmt.Errorf("check program enrollment: %w", err)
	}
	return exists, nil
}
