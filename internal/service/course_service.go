package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/models"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Course, error)
	FindWithStats(ctx context.Context, tenantID, id string) (*models.CourseWithStats, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SoftDelete(ctx context.Context, tenantID, id string) error
	ListActive(ctx context.Context, tenantID string) ([]models.Course, error)
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	CourseName     string `json:"course_name" validate:"required,max=200"`
	InstructorName string `json:"instructor_name" validate:"required,max=200"`
	IsActive       *bool  `json:"is_active"`
}

// UpdateCourseRequest holds payload for updating courses.
type UpdateCourseRequest struct {
	CourseName     string `json:"course_name" validate:"required,max=200"`
	InstructorName string `json:"instructor_name" validate:"required,max=200"`
	IsActive       bool   `json:"is_active"`
}

// CourseService handles course use-cases. Route gates decide who may call an
// operation; the service applies row-level scoping on top of that.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns courses visible to the actor with pagination metadata.
// Teachers only see courses they instruct; the restriction is applied here
// and never read from client input.
func (s *CourseService) List(ctx context.Context, actor models.Actor, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	filter.InstructorName = ""
	if actor.IsTeacher() {
		filter.InstructorName = actor.FullName
	}

	courses, total, err := s.repo.List(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// Get returns a course with its feedback aggregates.
func (s *CourseService) Get(ctx context.Context, actor models.Actor, id string) (*models.CourseWithStats, error) {
	course, err := s.repo.FindWithStats(ctx, actor.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListActive returns every active course for selection lists.
func (s *CourseService) ListActive(ctx context.Context, actor models.Actor) ([]models.Course, error) {
	courses, err := s.repo.ListActive(ctx, actor.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active courses")
	}
	return courses, nil
}

// Create registers a new course. New courses default to active.
func (s *CourseService) Create(ctx context.Context, actor models.Actor, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	course := &models.Course{
		TenantID:       actor.TenantID,
		CourseName:     req.CourseName,
		InstructorName: req.InstructorName,
		IsActive:       active,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateDashboards(ctx, actor.TenantID)
	return course, nil
}

// Update modifies a course. Teachers may only update courses they instruct;
// admins may update any course in the tenant.
func (s *CourseService) Update(ctx context.Context, actor models.Actor, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if actor.IsTeacher() && !actor.OwnsCourse(course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another instructor")
	}

	course.CourseName = req.CourseName
	course.InstructorName = req.InstructorName
	course.IsActive = req.IsActive
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateDashboards(ctx, actor.TenantID)
	return course, nil
}

// Delete soft-deletes a course. Any caller holding the delete permission may
// remove any course in the tenant; there is no ownership check here.
func (s *CourseService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.repo.FindByID(ctx, actor.TenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.SoftDelete(ctx, actor.TenantID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidateDashboards(ctx, actor.TenantID)
	return nil
}

func (s *CourseService) invalidateDashboards(ctx context.Context, tenantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dashboard:%s:*", tenantID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
