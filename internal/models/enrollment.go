package models

import "time"

// EnrollmentMode distinguishes how a student entered a course. Audit is kept
// distinct from free for reporting.
type EnrollmentMode string

const (
	EnrollmentModeFree  EnrollmentMode = "FREE"
	EnrollmentModeAudit EnrollmentMode = "AUDIT"
	EnrollmentModePaid  EnrollmentMode = "PAID"
)

// Enrollment ties a user to a course. At most one active enrollment may exist
// per (user, course); historical inactive rows are retained.
type Enrollment struct {
	ID        string         `db:"id" json:"id"`
	CourseID  string         `db:"course_id" json:"course_id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Active    bool           `db:"active" json:"active"`
	Mode      EnrollmentMode `db:"mode" json:"mode"`
	PaymentID *string        `db:"payment_id" json:"payment_id,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches an enrollment with display fields for listings.
type EnrollmentDetail struct {
	Enrollment
	StudentName string  `db:"student_name" json:"student_name"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	AmountPaid  float64 `db:"amount_paid" json:"amount_paid"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	CourseID  string
	UserID    string
	Mode      EnrollmentMode
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
