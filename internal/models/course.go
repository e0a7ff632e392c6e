package models

import "time"

// CourseStatus represents the publication lifecycle of a course.
type CourseStatus string

const (
	CourseStatusDraft CourseStatus = "DRAFT"
	CourseStatusOpen  CourseStatus = "OPEN"
	CourseStatusClosed CourseStatus = "CLOSED"
)

// Course is the central catalog entity.
type Course struct {
	ID                  string       `db:"id" json:"id"`
	Code                string       `db:"code" json:"code"`
	Title               string       `db:"title" json:"title"`
	Description         string       `db:"description" json:"description"`
	Level               int          `db:"level" json:"level"`
	Price               float64      `db:"price" json:"price"`
	Paid                bool         `db:"paid" json:"paid"`
	Auditable           bool         `db:"auditable" json:"auditable"`
	Certificate         bool         `db:"certificate" json:"certificate"`
	CertificateTemplate string       `db:"certificate_template" json:"certificate_template,omitempty"`
	Status              CourseStatus `db:"status" json:"status"`
	Public              bool         `db:"public" json:"public"`
	InstructorID        string       `db:"instructor_id" json:"instructor_id"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// IsFree reports whether enrollment requires no payment at all.
func (c *Course) IsFree() bool {
	return !c.Paid || c.Price <= 0
}

// CourseSection orders content within a course.
type CourseSection struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ResourceRequirement classifies how a resource counts toward completion.
type ResourceRequirement string

const (
	RequirementRequired   ResourceRequirement = "required"
	RequirementOptional   ResourceRequirement = "optional"
	RequirementSubstitute ResourceRequirement = "substitute"
)

// ResourceType enumerates supported content kinds.
type ResourceType string

const (
	ResourceTypeYoutube ResourceType = "youtube"
	ResourceTypePDF     ResourceType = "pdf"
	ResourceTypeText    ResourceType = "text"
	ResourceTypeAudio   ResourceType = "audio"
	ResourceTypeMeet    ResourceType = "meet"
	ResourceTypeLink    ResourceType = "link"
)

// CourseResource is one piece of content inside a section.
type CourseResource struct {
	ID          string              `db:"id" json:"id"`
	CourseID    string              `db:"course_id" json:"course_id"`
	SectionID   string              `db:"section_id" json:"section_id"`
	Name        string              `db:"name" json:"name"`
	Type        ResourceType        `db:"type" json:"type"`
	Requirement ResourceRequirement `db:"requirement" json:"requirement"`
	Position    int                 `db:"position" json:"position"`
	URL         string              `db:"url" json:"url,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// CourseFilter provides filters for catalog listings.
type CourseFilter struct {
	Search       string
	Status       CourseStatus
	InstructorID string
	PublicOnly   bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
