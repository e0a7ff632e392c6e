package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/now-lms/lms-api/internal/models"
)

// MasterClassRepository handles persistence of master classes.
type MasterClassRepository struct {
	db *sqlx.DB
}

// NewMasterClassRepository constructs the repository.
func NewMasterClassRepository(db *sqlx.DB) *MasterClassRepository {
	return &MasterClassRepository{db: db}
}

const masterClassColumns = `id, slug, title, description, price, paid, starts_at, ends_at, meeting_url, public, created_at`

// FindBySlug returns a master class by its URL slug.
func (r *MasterClassRepository) FindBySlug(ctx context.Context, slug string) (*models.MasterClass, error) {
	query := `SELECT ` + masterClassColumns + ` FROM master_classes WHERE slug = $1`
	var mc models.MasterClass
	if err := r.db.GetContext(ctx, &mc, query, slug); err != nil {
		return nil, err
	}
	return &mc, nil
}

// ListUpcoming returns master classes that have not ended yet, soonest first.
// When publicOnly is set only publicly listed events are returned.
func (r *MasterClassRepository) ListUpcoming(ctx context.Context, publicOnly bool, now time.Time) ([]models.MasterClass, error) {
	query := `SELECT ` + masterClassColumns + ` FROM master_classes WHERE ends_at > $1`
	if publicOnly {
		query += ` AND public = TRUE`
	}
	query += ` ORDER BY starts_at ASC`
	var classes []models.MasterClass
	if err := r.db.SelectContext(ctx, &classes, query, now); err != nil {
		return nil, fmt.Errorf("list master classes: %w", err)
	}
	return classes, nil
}

// Create persists a new master class.
func (r *MasterClassRepository) Create(ctx context.Context, mc *models.MasterClass) error {
	if mc.ID == "" {
		mc.ID = uuid.NewString()
	}
	if mc.CreatedAt.IsZero() {
		mc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO master_classes (id, slug, title, description, price, paid, starts_at, ends_at, meeting_url, public, created_at)
        VALUES (:id, :slug, :title, :description, :price, :paid, :starts_at, :ends_at, :meeting_url, :public, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mc); err != nil {
		return fmt.Errorf("create master class: %w", err)
	}
	return nil
}

// Update persists editable master class fields.
func (r *MasterClassRepository) Update(ctx context.Context, mc *models.MasterClass) error {
	const query = `UPDATE master_classes SET title = :title, description = :description,
        price = :price, paid = :paid, starts_at = :starts_at, ends_at = :ends_at,
        meeting_url = :meeting_url, public = :public WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mc); err != nil {
		return fmt.Errorf("update master class: %w", err)
	}
	return nil
}

// CreateEnrollment persists a master class enrollment.
func (r *MasterClassRepository) CreateEnrollment(ctx context.Context, enrollment *models.MasterClassEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO master_class_enrollments (id, master_class_id, user_id, payment_id, active, created_at)
        VALUES (:id, :master_class_id, :user_id, :payment_id, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create master class enrollment: %w", err)
	}
	return nil
}

// FindEnrollmentByID returns one master class enrollment.
func (r *MasterClassRepository) FindEnrollmentByID(ctx context.Context, id string) (*models.MasterClassEnrollment, error) {
	const query = `SELECT id, master_class_id, user_id, payment_id, active, created_at
        FROM master_class_enrollments WHERE id = $1`
	var enrollment models.MasterClassEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// SetEnrollmentActive flips the active flag on an enrollment.
func (r *MasterClassRepository) SetEnrollmentActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE master_class_enrollments SET active = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active); err != nil {
		return fmt.Errorf("update master class enrollment: %w", err)
	}
	return nil
}

// ExistsEnrollment reports whether the user is enrolled in the master class.
func (r *MasterClassRepository) ExistsEnrollment(ctx context.Context, userID, masterClassID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM master_class_enrollments WHERE user_id = $1 AND master_class_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, masterClassID); err != nil {
		return false, fmt.Errorf("check master class enrollment: %w", err)
	}
	return exists, nil
}
