package models

import "time"

// PaymentStatus tracks the lifecycle of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// PaymentMethod records how the enrollment was settled. Free and audit paths
// create zero-amount rows so reporting stays uniform.
type PaymentMethod string

const (
	PaymentMethodFree   PaymentMethod = "FREE"
	PaymentMethodAudit  PaymentMethod = "AUDIT"
	PaymentMethodPayPal PaymentMethod = "PAYPAL"
	PaymentMethodStripe PaymentMethod = "STRIPE"
)

// Payment is created before the enrollment is finalised. Paid enrollments
// stay pending until the gateway confirms.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"user_id"`
	CourseID    string        `db:"course_id" json:"course_id"`
	Amount      float64       `db:"amount" json:"amount"`
	Currency    string        `db:"currency" json:"currency"`
	Status      PaymentStatus `db:"status" json:"status"`
	Method      PaymentMethod `db:"method" json:"method"`
	CouponID    *string       `db:"coupon_id" json:"coupon_id,omitempty"`
	ExternalRef string        `db:"external_ref" json:"external_ref,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	ConfirmedAt *time.Time    `db:"confirmed_at" json:"confirmed_at,omitempty"`
}
