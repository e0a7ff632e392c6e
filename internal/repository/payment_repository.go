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

// PaymentRepository handles persistence of payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, course_id, amount, currency, status, method, coupon_id, external_ref, created_at, confirmed_at`

// FindByID returns a payment by its identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create persists a new payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, user_id, course_id, amount, currency, status, method, coupon_id, external_ref, created_at, confirmed_at)
        VALUES (:id, :user_id, :course_id, :amount, :currency, :status, :method, :coupon_id, :external_ref, :created_at, :confirmed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// MarkCompleted transitions a pending payment to completed. Only pending rows
// qualify, so a duplicate gateway callback is a no-op.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, id, externalRef string) (bool, error) {
	const query = `UPDATE payments SET status = $2, external_ref = $3, confirmed_at = $4
        WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, models.PaymentStatusCompleted, externalRef, time.Now().UTC(), models.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("complete payment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete payment: %w", err)
	}
	return affected > 0, nil
}

// MarkCancelled transitions a pending payment to cancelled.
func (r *PaymentRepository) MarkCancelled(ctx context.Context, id string) error {
	const query = `UPDATE payments SET status = $2 WHERE id = $1 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, id, models.PaymentStatusCancelled, models.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("cancel payment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel payment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByUser returns the payment history of a user, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
