package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

// CourseRepository handles persistence for courses. Every query is tenant
// filtered; soft-deleted rows are invisible to all lookups.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, tenant_id, course_name, instructor_name, is_active, is_deleted, created_at, updated_at"

// List returns courses matching filters with the total match count.
func (r *CourseRepository) List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE tenant_id = $1 AND is_deleted = FALSE"
	args := []interface{}{tenantID}
	var conditions []string

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(course_name) LIKE $%d OR LOWER(instructor_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.InstructorName != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_name = $%d", len(args)+1))
		args = append(args, filter.InstructorName)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "course_name"
	}
	allowedSorts := map[string]bool{
		"course_name":     true,
		"instructor_name": true,
		"is_active":       true,
		"created_at":      true,
		"updated_at":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "course_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, base, sortBy, order, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, tenantID); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindWithStats returns a course joined with its feedback count and average
// rating. average_rating is NULL when the course has no feedback.
func (r *CourseRepository) FindWithStats(ctx context.Context, tenantID, id string) (*models.CourseWithStats, error) {
	const query = `
		SELECT c.id, c.tenant_id, c.course_name, c.instructor_name, c.is_active, c.is_deleted, c.created_at, c.updated_at,
		       COUNT(f.id) AS feedback_count,
		       AVG(f.rating) AS average_rating
		FROM courses c
		LEFT JOIN feedbacks f ON f.course_id = c.id AND f.is_deleted = FALSE
		WHERE c.id = $1 AND c.tenant_id = $2 AND c.is_deleted = FALSE
		GROUP BY c.id, c.tenant_id, c.course_name, c.instructor_name, c.is_active, c.is_deleted, c.created_at, c.updated_at`
	var course models.CourseWithStats
	if err := r.db.GetContext(ctx, &course, query, id, tenantID); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, tenant_id, course_name, instructor_name, is_active, is_deleted, created_at, updated_at)
		VALUES (:id, :tenant_id, :course_name, :instructor_name, :is_active, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET course_name = :course_name, instructor_name = :instructor_name, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id AND is_deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SoftDelete flags a course as deleted. Rows are never removed: feedbacks
// restrict hard deletes.
func (r *CourseRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	const query = `UPDATE courses SET is_deleted = TRUE, updated_at = $3 WHERE id = $1 AND tenant_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, tenantID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete course: %w", err)
	}
	return nil
}

// ListActive returns all active courses for the tenant, name ascending.
// Used to populate selection lists; not role scoped.
func (r *CourseRepository) ListActive(ctx context.Context, tenantID string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE tenant_id = $1 AND is_deleted = FALSE AND is_active = TRUE ORDER BY course_name ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, tenantID); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	return courses, nil
}

// ListAllActive returns active courses across every tenant. Only the
// inactivity checker uses this.
func (r *CourseRepository) ListAllActive(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE is_deleted = FALSE AND is_active = TRUE ORDER BY course_name ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list all active courses: %w", err)
	}
	return courses, nil
}
