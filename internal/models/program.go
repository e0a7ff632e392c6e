package models

import "time"

// Program bundles multiple courses under one enrollment.
type Program struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	Public      bool      `db:"public" json:"public"`
	Open        bool      `db:"open" json:"open"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProgramCourse links a course into a program.
type ProgramCourse struct {
	ProgramID string `db:"program_id" json:"program_id"`
	CourseID  string `db:"course_id" json:"course_id"`
	Position  int    `db:"position" json:"position"`
}

// ProgramEnrollment ties a user to a program.
type ProgramEnrollment struct {
	ID        string    `db:"id" json:"id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
