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

type feedbackRepository interface {
	List(ctx context.Context, tenantID string, filter models.FeedbackFilter) ([]models.FeedbackWithCourse, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Feedback, error)
	FindWithCourse(ctx context.Context, tenantID, id string) (*models.FeedbackWithCourse, error)
	CountByCourse(ctx context.Context, tenantID, courseID string) (int, error)
	Create(ctx context.Context, feedback *models.Feedback) error
	Update(ctx context.Context, feedback *models.Feedback) error
	SoftDelete(ctx context.Context, tenantID, id string) error
}

type courseFinder interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Course, error)
}

type feedbackQuotaProvider interface {
	MaxFeedbackPerCourse(ctx context.Context, tenantID string) (int, error)
}

// CreateFeedbackRequest holds payload for submitting feedback. The student
// name is never part of the payload; it is taken from the authenticated
// caller.
type CreateFeedbackRequest struct {
	CourseID           string  `json:"course_id" validate:"required"`
	Comment            string  `json:"comment" validate:"max=2000"`
	Rating             int     `json:"rating" validate:"required,min=1,max=5"`
	AttachmentPath     *string `json:"attachment_path"`
	AttachmentFileName *string `json:"attachment_file_name"`
}

// UpdateFeedbackRequest holds payload for editing a feedback entry.
type UpdateFeedbackRequest struct {
	Comment            string  `json:"comment" validate:"max=2000"`
	Rating             int     `json:"rating" validate:"required,min=1,max=5"`
	AttachmentPath     *string `json:"attachment_path"`
	AttachmentFileName *string `json:"attachment_file_name"`
}

// FeedbackService handles feedback use-cases.
type FeedbackService struct {
	repo      feedbackRepository
	courses   courseFinder
	quota     feedbackQuotaProvider
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs the feedback service.
func NewFeedbackService(repo feedbackRepository, courses courseFinder, quota feedbackQuotaProvider, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, courses: courses, quota: quota, cache: cache, validator: validate, logger: logger}
}

// List returns feedback visible to the actor with pagination metadata.
func (s *FeedbackService) List(ctx context.Context, actor models.Actor, filter models.FeedbackFilter) ([]models.FeedbackWithCourse, *models.Pagination, error) {
	filter.Scope = feedbackScopeFor(actor)

	feedbacks, total, err := s.repo.List(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedbacks")
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
	return feedbacks, pagination, nil
}

// Get returns a single feedback entry, subject to the same visibility rules
// as List.
func (s *FeedbackService) Get(ctx context.Context, actor models.Actor, id string) (*models.FeedbackWithCourse, error) {
	feedback, err := s.repo.FindWithCourse(ctx, actor.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	if err := s.checkVisibility(ctx, actor, &feedback.Feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// Create submits feedback on behalf of the authenticated student. The quota
// setting caps submissions per course; zero means unlimited.
func (s *FeedbackService) Create(ctx context.Context, actor models.Actor, req CreateFeedbackRequest) (*models.Feedback, error) {
	if !actor.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit feedback")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	if _, err := s.courses.FindByID(ctx, actor.TenantID, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	limit, err := s.quota.MaxFeedbackPerCourse(ctx, actor.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read feedback quota")
	}
	if limit > 0 {
		count, err := s.repo.CountByCourse(ctx, actor.TenantID, req.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count feedback")
		}
		if count >= limit {
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("course already has the maximum of %d feedback entries", limit))
		}
	}

	feedback := &models.Feedback{
		TenantID:           actor.TenantID,
		CourseID:           req.CourseID,
		StudentName:        actor.FullName,
		Comment:            req.Comment,
		Rating:             req.Rating,
		AttachmentPath:     req.AttachmentPath,
		AttachmentFileName: req.AttachmentFileName,
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create feedback")
	}
	s.invalidateDashboards(ctx, actor.TenantID)
	return feedback, nil
}

// Update edits a feedback entry. Only the submitting student may edit it;
// admins deliberately have no override here.
func (s *FeedbackService) Update(ctx context.Context, actor models.Actor, id string, req UpdateFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}
	feedback, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	if !actor.OwnsFeedback(feedback) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "feedback belongs to another student")
	}

	feedback.Comment = req.Comment
	feedback.Rating = req.Rating
	feedback.AttachmentPath = req.AttachmentPath
	feedback.AttachmentFileName = req.AttachmentFileName
	if err := s.repo.Update(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update feedback")
	}
	s.invalidateDashboards(ctx, actor.TenantID)
	return feedback, nil
}

// Delete removes a feedback entry. Admins may delete any entry; other
// callers only their own.
func (s *FeedbackService) Delete(ctx context.Context, actor models.Actor, id string) error {
	feedback, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	if !actor.IsAdmin() && !actor.OwnsFeedback(feedback) {
		return appErrors.Clone(appErrors.ErrForbidden, "feedback belongs to another student")
	}
	if err := s.repo.SoftDelete(ctx, actor.TenantID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete feedback")
	}
	s.invalidateDashboards(ctx, actor.TenantID)
	return nil
}

// checkVisibility enforces the read scope on single-row lookups.
func (s *FeedbackService) checkVisibility(ctx context.Context, actor models.Actor, feedback *models.Feedback) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsTeacher():
		course, err := s.courses.FindByID(ctx, actor.TenantID, feedback.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if !actor.OwnsCourse(course) {
			return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil
	default:
		if !actor.OwnsFeedback(feedback) {
			return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil
	}
}

func (s *FeedbackService) invalidateDashboards(ctx context.Context, tenantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dashboard:%s:*", tenantID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
