package models

import "time"

// MasterClass is a scheduled live event sold separately from courses.
type MasterClass struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	Paid        bool      `db:"paid" json:"paid"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	MeetingURL  string    `db:"meeting_url" json:"meeting_url,omitempty"`
	Public      bool      `db:"public" json:"public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MasterClassEnrollment ties a user to a master class. Paid seats stay
// inactive until the gateway confirms the payment.
type MasterClassEnrollment struct {
	ID            string    `db:"id" json:"id"`
	MasterClassID string    `db:"master_class_id" json:"master_class_id"`
	UserID        string    `db:"user_id" json:"user_id"`
	PaymentID     *string   `db:"payment_id" json:"payment_id,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
