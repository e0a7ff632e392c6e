package models

import "time"

// ResourceProgress tracks one user's interaction with one resource. Created on
// first interaction, mutated on completion, never deleted while the
// enrollment stays active.
type ResourceProgress struct {
	ID          string              `db:"id" json:"id"`
	UserID      string              `db:"user_id" json:"user_id"`
	CourseID    string              `db:"course_id" json:"course_id"`
	ResourceID  string              `db:"resource_id" json:"resource_id"`
	Completed   bool                `db:"completed" json:"completed"`
	Requirement ResourceRequirement `db:"requirement" json:"requirement"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// CourseProgress is the derived per-(user, course) summary, recomputed on
// every resource or attempt mutation. Completed never regresses to false.
type CourseProgress struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
