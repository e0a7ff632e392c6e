package models

import "time"

// CertificateTemplate is an authorable layout courses reference by code.
type CertificateTemplate struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Enabled     bool      `db:"enabled" json:"enabled"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IssuedCertificate records a point-in-time achievement. At most one row may
// exist per (user, course); it is never revoked by the progress engine.
type IssuedCertificate struct {
	ID        string    `db:"id" json:"id"`
	Serial    string    `db:"serial" json:"serial"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Template  string    `db:"template" json:"template"`
	FilePath  string    `db:"file_path" json:"file_path,omitempty"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
}

// IssuedCertificateDetail enriches a certificate with display names for
// validation lookups.
type IssuedCertificateDetail struct {
	IssuedCertificate
	StudentName string `db:"student_name" json:"student_name"`
	CourseTitle string `db:"course_title" json:"course_title"`
}
