package dto

import "time"

// DashboardResponse is the role-scoped summary payload. UserRole echoes which
// scoping was applied so the client can pick labels; the server has already
// narrowed the data.
type DashboardResponse struct {
	TotalFeedbackCount int              `json:"total_feedback_count"`
	TotalCourseCount   int              `json:"total_course_count"`
	AverageRating      *float64         `json:"average_rating"`
	UserRole           string           `json:"user_role"`
	TopCoursesByRating []TopCourse      `json:"top_courses_by_rating"`
	RecentFeedbacks    []RecentFeedback `json:"recent_feedbacks"`
}

// TopCourse is one row of the top-courses-by-rating table.
type TopCourse struct {
	CourseName    string  `json:"course_name"`
	AverageRating float64 `json:"average_rating"`
	FeedbackCount int     `json:"feedback_count"`
}

// RecentFeedback is one row of the recent-feedback table.
type RecentFeedback struct {
	StudentName string    `json:"student_name"`
	CourseName  string    `json:"course_name"`
	Rating      int       `json:"rating"`
	CreatedDate time.Time `json:"created_date"`
}
