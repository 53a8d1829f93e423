package models

import "time"

// Feedback is a tenant-scoped feedback row submitted by a student.
// StudentName is always server-assigned from the authenticated caller.
type Feedback struct {
	ID                 string    `db:"id" json:"id"`
	TenantID           string    `db:"tenant_id" json:"-"`
	CourseID           string    `db:"course_id" json:"course_id"`
	StudentName        string    `db:"student_name" json:"student_name"`
	Comment            string    `db:"comment" json:"comment"`
	Rating             int       `db:"rating" json:"rating"`
	AttachmentPath     *string   `db:"attachment_path" json:"attachment_path,omitempty"`
	AttachmentFileName *string   `db:"attachment_file_name" json:"attachment_file_name,omitempty"`
	IsDeleted          bool      `db:"is_deleted" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// FeedbackWithCourse joins a feedback row with its course name.
type FeedbackWithCourse struct {
	Feedback
	CourseName string `db:"course_name" json:"course_name"`
}

// FeedbackScope narrows feedback queries by caller identity. Exactly one of
// the fields is set for non-admin callers; both empty means unscoped.
type FeedbackScope struct {
	// StudentName limits rows to the student's own feedback.
	StudentName string
	// InstructorName limits rows to feedback on the instructor's courses.
	InstructorName string
}

// FeedbackFilter captures filtering criteria for listing feedback.
type FeedbackFilter struct {
	Search   string
	CourseID string
	Rating   *int
	Page     int
	PageSize int

	Scope FeedbackScope
}
