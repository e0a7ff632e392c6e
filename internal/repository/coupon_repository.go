package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/now-lms/lms-api/internal/models"
)

// CouponRepository persists course coupons.
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository constructs the repository.
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `id, course_id, code, discount_type, discount_value, max_uses, current_uses, expires_at, created_at`

// FindByCode looks up a coupon by (course, code). Codes are stored uppercase;
// the lookup normalises the same way.
func (r *CouponRepository) FindByCode(ctx context.Context, courseID, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE course_id = $1 AND code = $2`
	var coupon models.Coupon
	if err := r.db.GetContext(ctx, &coupon, query, courseID, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ListByCourse returns all coupons of a course.
func (r *CouponRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE course_id = $1 ORDER BY created_at DESC`
	var coupons []models.Coupon
	if err := r.db.SelectContext(ctx, &coupons, query, courseID); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// Create persists a new coupon, normalising the code to uppercase.
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.NewString()
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = time.Now().UTC()
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	const query = `INSERT INTO coupons (id, course_id, code, discount_type, discount_value, max_uses, current_uses, expires_at, created_at)
        VALUES (:id, :course_id, :code, :discount_type, :discount_value, :max_uses, :current_uses, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, coupon); err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// IncrementUses bumps current_uses, guarded so the counter never exceeds the
// cap even under concurrent redemptions. Returns the number of rows updated.
func (r *CouponRepository) IncrementUses(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE coupons SET current_uses = current_uses + 1
        WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("increment coupon uses: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment coupon uses: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM coupons WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}
