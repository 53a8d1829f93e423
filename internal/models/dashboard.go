package models

// CourseRatingSummary is a per-course aggregate over scoped feedback.
type CourseRatingSummary struct {
	CourseID      string  `db:"course_id"`
	CourseName    string  `db:"course_name"`
	AverageRating float64 `db:"average_rating"`
	FeedbackCount int     `db:"feedback_count"`
}
