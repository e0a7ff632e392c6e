package models

import "time"

// Evaluation is a graded quiz or exam attached to a course section.
type Evaluation struct {
	ID           string    `db:"id" json:"id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description,omitempty"`
	PassingScore float64   `db:"passing_score" json:"passing_score"`
	MaxAttempts  *int      `db:"max_attempts" json:"max_attempts,omitempty"`
	IsExam       bool      `db:"is_exam" json:"is_exam"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EvaluationQuestion belongs to an evaluation.
type EvaluationQuestion struct {
	ID           string  `db:"id" json:"id"`
	EvaluationID string  `db:"evaluation_id" json:"evaluation_id"`
	Text         string  `db:"text" json:"text"`
	Position     int     `db:"position" json:"position"`
	Weight       float64 `db:"weight" json:"weight"`
}

// QuestionOption is one selectable answer for a question.
type QuestionOption struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"question_id"`
	Text       string `db:"text" json:"text"`
	Correct    bool   `db:"correct" json:"-"`
}

// EvaluationAttempt records one submission. Only the existence of a passed
// attempt matters for certificate eligibility.
type EvaluationAttempt struct {
	ID           string    `db:"id" json:"id"`
	EvaluationID string    `db:"evaluation_id" json:"evaluation_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Score        float64   `db:"score" json:"score"`
	Passed       bool      `db:"passed" json:"passed"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
}
