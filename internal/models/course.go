package models

import "time"

// Course is a tenant-scoped course row. Deletion is always a soft delete:
// feedback rows reference courses with ON DELETE RESTRICT.
type Course struct {
	ID             string    `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"-"`
	CourseName     string    `db:"course_name" json:"course_name"`
	InstructorName string    `db:"instructor_name" json:"instructor_name"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsDeleted      bool      `db:"is_deleted" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CourseWithStats joins a course with its feedback aggregates.
// AverageRating is nil when the course has no feedback.
type CourseWithStats struct {
	Course
	FeedbackCount int      `db:"feedback_count" json:"feedback_count"`
	AverageRating *float64 `db:"average_rating" json:"average_rating"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	Search    string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string

	// InstructorName restricts rows to one instructor; set by the service
	// when the caller is a teacher, never from client input.
	InstructorName string
}
