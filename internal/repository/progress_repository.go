package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/now-lms/lms-api/internal/models"
)

// ProgressRepository tracks per-resource and per-course progress rows.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// FindResourceProgress returns the progress row for (user, resource), if any.
func (r *ProgressRepository) FindResourceProgress(ctx context.Context, userID, resourceID string) (*models.ResourceProgress, error) {
	const query = `SELECT id, user_id, course_id, resource_id, completed, requirement, updated_at
        FROM resource_progress WHERE user_id = $1 AND resource_id = $2`
	var progress models.ResourceProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, resourceID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// UpsertResourceProgress creates or updates the (user, resource) progress row.
func (r *ProgressRepository) UpsertResourceProgress(ctx context.Context, progress *models.ResourceProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO resource_progress (id, user_id, course_id, resource_id, completed, requirement, updated_at)
        VALUES (:id, :user_id, :course_id, :resource_id, :completed, :requirement, :updated_at)
        ON CONFLICT (user_id, resource_id) DO UPDATE SET completed = EXCLUDED.completed, requirement = EXCLUDED.requirement, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert resource progress: %w", err)
	}
	return nil
}

// CountCompletedRequired returns how many required resources of the course the
// user has completed.
func (r *ProgressRepository) CountCompletedRequired(ctx context.Context, userID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM resource_progress
        WHERE user_id = $1 AND course_id = $2 AND completed = TRUE AND requirement = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, courseID, models.RequirementRequired); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count completed required resources: %w", err)
	}
	return count, nil
}

// CountCompletedSubstitutes returns how many substitute resources of the
// course the user has completed. Each one stands in for an unfinished
// required resource.
func (r *ProgressRepository) CountCompletedSubstitutes(ctx context.Context, userID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM resource_progress
        WHERE user_id = $1 AND course_id = $2 AND completed = TRUE AND requirement = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, courseID, models.RequirementSubstitute); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count completed substitute resources: %w", err)
	}
	return count, nil
}

// ListByCourse returns all progress rows for (user, course).
func (r *ProgressRepository) ListByCourse(ctx context.Context, userID, courseID string) ([]models.ResourceProgress, error) {
	const query = `SELECT id, user_id, course_id, resource_id, completed, requirement, updated_at
        FROM resource_progress WHERE user_id = $1 AND course_id = $2`
	var rows []models.ResourceProgress
	if err := r.db.SelectContext(ctx, &rows, query, userID, courseID); err != nil {
		return nil, fmt.Errorf("list resource progress: %w", err)
	}
	return rows, nil
}

// FindCourseProgress returns the derived summary row for (user, course).
func (r *ProgressRepository) FindCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	const query = `SELECT id, user_id, course_id, completed, completed_at, updated_at
        FROM course_progress WHERE user_id = $1 AND course_id = $2`
	var progress models.CourseProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, courseID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// UpsertCourseProgress writes the derived summary. Completed never regresses:
// the update keeps the row completed once it has been marked so.
func (r *ProgressRepository) UpsertCourseProgress(ctx context.Context, progress *models.CourseProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO course_progress (id, user_id, course_id, completed, completed_at, updated_at)
        VALUES (:id, :user_id, :course_id, :completed, :completed_at, :updated_at)
        ON CONFLICT (user_id, course_id) DO UPDATE SET
            completed = course_progress.completed OR EXCLUDED.completed,
            completed_at = COALESCE(course_progress.completed_at, EXCLUDED.completed_at),
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert course progress: %w", err)
	}
	return nil
}
