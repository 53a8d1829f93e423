package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

// DashboardRepository runs the role-scoped aggregate queries backing the
// dashboard. The same FeedbackScope used for listing narrows every query
// here, so the summary can never show more than the list endpoints do.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new repository instance.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// feedbackScopeClause appends scope conditions against the aliased
// feedbacks (f) and courses (c) tables.
func feedbackScopeClause(scope models.FeedbackScope, args []interface{}) (string, []interface{}) {
	clause := ""
	if scope.StudentName != "" {
		clause += fmt.Sprintf(" AND f.student_name = $%d", len(args)+1)
		args = append(args, scope.StudentName)
	}
	if scope.InstructorName != "" {
		clause += fmt.Sprintf(" AND c.instructor_name = $%d", len(args)+1)
		args = append(args, scope.InstructorName)
	}
	return clause, args
}

// CountFeedback returns the scoped feedback row count.
func (r *DashboardRepository) CountFeedback(ctx context.Context, tenantID string, scope models.FeedbackScope) (int, error) {
	base := `SELECT COUNT(*) FROM feedbacks f
		JOIN courses c ON c.id = f.course_id
		WHERE f.tenant_id = $1 AND f.is_deleted = FALSE`
	args := []interface{}{tenantID}
	clause, args := feedbackScopeClause(scope, args)

	var count int
	if err := r.db.GetContext(ctx, &count, base+clause, args...); err != nil {
		return 0, fmt.Errorf("count scoped feedback: %w", err)
	}
	return count, nil
}

// CountCourses returns the scoped course count: all courses for admins, the
// instructor's own for teachers, and courses the student has feedback in for
// students.
func (r *DashboardRepository) CountCourses(ctx context.Context, tenantID string, scope models.FeedbackScope) (int, error) {
	query := `SELECT COUNT(*) FROM courses c WHERE c.tenant_id = $1 AND c.is_deleted = FALSE`
	args := []interface{}{tenantID}

	switch {
	case scope.StudentName != "":
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM feedbacks f
			WHERE f.course_id = c.id AND f.is_deleted = FALSE AND f.student_name = $%d)`, len(args)+1)
		args = append(args, scope.StudentName)
	case scope.InstructorName != "":
		query += fmt.Sprintf(" AND c.instructor_name = $%d", len(args)+1)
		args = append(args, scope.InstructorName)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count scoped courses: %w", err)
	}
	return count, nil
}

// AverageRating returns the mean rating over scoped feedback, or nil when
// the scoped set is empty.
func (r *DashboardRepository) AverageRating(ctx context.Context, tenantID string, scope models.FeedbackScope) (*float64, error) {
	base := `SELECT AVG(f.rating) FROM feedbacks f
		JOIN courses c ON c.id = f.course_id
		WHERE f.tenant_id = $1 AND f.is_deleted = FALSE`
	args := []interface{}{tenantID}
	clause, args := feedbackScopeClause(scope, args)

	var avg *float64
	if err := r.db.GetContext(ctx, &avg, base+clause, args...); err != nil {
		return nil, fmt.Errorf("average scoped rating: %w", err)
	}
	return avg, nil
}

// TopCoursesByRating groups scoped feedback by course and returns the top
// courses ordered by average rating descending.
func (r *DashboardRepository) TopCoursesByRating(ctx context.Context, tenantID string, scope models.FeedbackScope, limit int) ([]models.CourseRatingSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	base := `SELECT f.course_id AS course_id, c.course_name AS course_name,
		       AVG(f.rating) AS average_rating, COUNT(*) AS feedback_count
		FROM feedbacks f
		JOIN courses c ON c.id = f.course_id
		WHERE f.tenant_id = $1 AND f.is_deleted = FALSE`
	args := []interface{}{tenantID}
	clause, args := feedbackScopeClause(scope, args)
	query := fmt.Sprintf("%s%s GROUP BY f.course_id, c.course_name ORDER BY average_rating DESC LIMIT %d", base, clause, limit)

	var summaries []models.CourseRatingSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("top courses by rating: %w", err)
	}
	return summaries, nil
}

// RecentFeedback returns the most recent scoped feedback rows with course
// names, newest first.
func (r *DashboardRepository) RecentFeedback(ctx context.Context, tenantID string, scope models.FeedbackScope, limit int) ([]models.FeedbackWithCourse, error) {
	if limit <= 0 {
		limit = 5
	}
	base := fmt.Sprintf(`SELECT %s FROM feedbacks f
		JOIN courses c ON c.id = f.course_id
		WHERE f.tenant_id = $1 AND f.is_deleted = FALSE`, feedbackJoinColumns)
	args := []interface{}{tenantID}
	clause, args := feedbackScopeClause(scope, args)
	query := fmt.Sprintf("%s%s ORDER BY f.created_at DESC LIMIT %d", base, clause, limit)

	var feedbacks []models.FeedbackWithCourse
	if err := r.db.SelectContext(ctx, &feedbacks, query, args...); err != nil {
		return nil, fmt.Errorf("recent scoped feedback: %w", err)
	}
	return feedbacks, nil
}
