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

// EvaluationRepository handles evaluations and their attempts.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

const evaluationColumns = `id, section_id, course_id, title, description, passing_score, max_attempts, is_exam, created_at`

// FindByID returns an evaluation by ID.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, query, id); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// ListByCourse returns every evaluation tied to any section of the course.
func (r *EvaluationRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE course_id = $1 ORDER BY created_at ASC`
	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, courseID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evaluations, nil
}

// Create persists a new evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluations (id, section_id, course_id, title, description, passing_score, max_attempts, is_exam, created_at)
        VALUES (:id, :section_id, :course_id, :title, :description, :passing_score, :max_attempts, :is_exam, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// CountAttempts returns how many attempts the user has made at the evaluation.
func (r *EvaluationRepository) CountAttempts(ctx context.Context, evaluationID, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM evaluation_attempts WHERE evaluation_id = $1 AND user_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, evaluationID, userID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// HasPassedAttempt reports whether the user has at least one passing attempt.
func (r *EvaluationRepository) HasPassedAttempt(ctx context.Context, evaluationID, userID string) (bool, error) {
	const query = `SELECT 1 FROM evaluation_attempts WHERE evaluation_id = $1 AND user_id = $2 AND passed = TRUE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, evaluationID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check passed attempt: %w", err)
	}
	return true, nil
}

// CreateAttempt records one submission.
func (r *EvaluationRepository) CreateAttempt(ctx context.Context, attempt *models.EvaluationAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.SubmittedAt.IsZero() {
		attempt.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluation_attempts (id, evaluation_id, user_id, score, passed, submitted_at)
        VALUES (:id, :evaluation_id, :user_id, :score, :passed, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the user's attempts at an evaluation, newest first.
func (r *EvaluationRepository) ListAttempts(ctx context.Context, evaluationID, userID string) ([]models.EvaluationAttempt, error) {
	const query = `SELECT id, evaluation_id, user_id, score, passed, submitted_at
        FROM evaluation_attempts WHERE evaluation_id = $1 AND user_id = $2 ORDER BY submitted_at DESC`
	var attempts []models.EvaluationAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, evaluationID, userID); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
