package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

// FeedbackRepository handles persistence for feedback rows.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new repository instance.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const feedbackJoinColumns = `f.id, f.tenant_id, f.course_id, f.student_name, f.comment, f.rating,
	       f.attachment_path, f.attachment_file_name, f.is_deleted, f.created_at, f.updated_at,
	       c.course_name AS course_name`

// List returns feedback matching filters, joined with course names, ordered
// by creation date descending.
func (r *FeedbackRepository) List(ctx context.Context, tenantID string, filter models.FeedbackFilter) ([]models.FeedbackWithCourse, int, error) {
	base := `FROM feedbacks f
		JOIN courses c ON c.id = f.course_id
		WHERE f.tenant_id = $1 AND f.is_deleted = FALSE`
	args := []interface{}{tenantID}
	var conditions []string

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(f.student_name) LIKE $%d OR LOWER(f.comment) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("f.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Rating != nil {
		conditions = append(conditions, fmt.Sprintf("f.rating = $%d", len(args)+1))
		args = append(args, *filter.Rating)
	}
	if filter.Scope.StudentName != "" {
		conditions = append(conditions, fmt.Sprintf("f.student_name = $%d", len(args)+1))
		args = append(args, filter.Scope.StudentName)
	}
	if filter.Scope.InstructorName != "" {
		conditions = append(conditions, fmt.Sprintf("c.instructor_name = $%d", len(args)+1))
		args = append(args, filter.Scope.InstructorName)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY f.created_at DESC LIMIT %d OFFSET %d", feedbackJoinColumns, base, size, offset)
	var feedbacks []models.FeedbackWithCourse
	if err := r.db.SelectContext(ctx, &feedbacks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list feedbacks: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count feedbacks: %w", err)
	}

	return feedbacks, total, nil
}

// FindByID returns a feedback row by id.
func (r *FeedbackRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Feedback, error) {
	const query = `SELECT id, tenant_id, course_id, student_name, comment, rating,
		       attachment_path, attachment_file_name, is_deleted, created_at, updated_at
		FROM feedbacks WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`
	var feedback models.Feedback
	if err := r.db.GetContext(ctx, &feedback, query, id, tenantID); err != nil {
		return nil, err
	}
	return &feedback, nil
}

// FindWithCourse returns a feedback row joined with its course name.
func (r *FeedbackRepository) FindWithCourse(ctx context.Context, tenantID, id string) (*models.FeedbackWithCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedbacks f
		JOIN courses c ON c.id = f.course_id
		WHERE f.id = $1 AND f.tenant_id = $2 AND f.is_deleted = FALSE`, feedbackJoinColumns)
	var feedback models.FeedbackWithCourse
	if err := r.db.GetContext(ctx, &feedback, query, id, tenantID); err != nil {
		return nil, err
	}
	return &feedback, nil
}

// CountByCourse returns the number of live feedback rows for a course.
// The quota check reads this before inserting; two concurrent creates can
// both pass, so the configured limit is a soft cap.
func (r *FeedbackRepository) CountByCourse(ctx context.Context, tenantID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM feedbacks WHERE tenant_id = $1 AND course_id = $2 AND is_deleted = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, tenantID, courseID); err != nil {
		return 0, fmt.Errorf("count feedbacks for course: %w", err)
	}
	return count, nil
}

// Create persists a new feedback row.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = now
	}
	feedback.UpdatedAt = now

	const query = `INSERT INTO feedbacks (id, tenant_id, course_id, student_name, comment, rating, attachment_path, attachment_file_name, is_deleted, created_at, updated_at)
		VALUES (:id, :tenant_id, :course_id, :student_name, :comment, :rating, :attachment_path, :attachment_file_name, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// Update modifies a feedback row.
func (r *FeedbackRepository) Update(ctx context.Context, feedback *models.Feedback) error {
	feedback.UpdatedAt = time.Now().UTC()
	const query = `UPDATE feedbacks SET comment = :comment, rating = :rating, student_name = :student_name,
		attachment_path = :attachment_path, attachment_file_name = :attachment_file_name, updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id AND is_deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return nil
}

// SoftDelete flags a feedback row as deleted.
func (r *FeedbackRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	const query = `UPDATE feedbacks SET is_deleted = TRUE, updated_at = $3 WHERE id = $1 AND tenant_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, tenantID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete feedback: %w", err)
	}
	return nil
}

// HasFeedbackSince reports whether the course received any feedback at or
// after the cutoff. Used by the inactivity checker.
func (r *FeedbackRepository) HasFeedbackSince(ctx context.Context, courseID string, cutoff time.Time) (bool, error) {
	const query = `SELECT 1 FROM feedbacks WHERE course_id = $1 AND is_deleted = FALSE AND created_at >= $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, cutoff); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check recent feedback: %w", err)
	}
	return true, nil
}
