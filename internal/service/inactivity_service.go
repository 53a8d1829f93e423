package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

type activeCourseLister interface {
	ListAllActive(ctx context.Context) ([]models.Course, error)
}

type recentFeedbackChecker interface {
	HasFeedbackSince(ctx context.Context, courseID string, cutoff time.Time) (bool, error)
}

// InactivityConfig tunes the stale-course sweep.
type InactivityConfig struct {
	LookbackDays int
}

// InactivityService sweeps active courses and flags the ones that have not
// received feedback within the lookback window.
type InactivityService struct {
	courses  activeCourseLister
	feedback recentFeedbackChecker
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	cfg      InactivityConfig
}

// NewInactivityService constructs the inactivity checker.
func NewInactivityService(courses activeCourseLister, feedback recentFeedbackChecker, metrics *MetricsService, logger *zap.Logger, cfg InactivityConfig) *InactivityService {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InactivityService{
		courses:  courses,
		feedback: feedback,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Check returns the active courses without feedback since the cutoff. A
// course with no feedback at all is always stale.
func (s *InactivityService) Check(ctx context.Context) ([]models.Course, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.LookbackDays)

	courses, err := s.courses.ListAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}

	var stale []models.Course
	for _, course := range courses {
		recent, err := s.feedback.HasFeedbackSince(ctx, course.ID, cutoff)
		if err != nil {
			return nil, fmt.Errorf("check feedback for course %s: %w", course.ID, err)
		}
		if !recent {
			stale = append(stale, course)
		}
	}
	return stale, nil
}

// Run executes one sweep and logs every flagged course. Registered with the
// job scheduler.
func (s *InactivityService) Run(ctx context.Context) error {
	stale, err := s.Check(ctx)
	if err != nil {
		return err
	}

	for _, course := range stale {
		s.logger.Warn("course has received no recent feedback",
			zap.String("course_id", course.ID),
			zap.String("course_name", course.CourseName),
			zap.String("instructor_name", course.InstructorName),
			zap.Int("lookback_days", s.cfg.LookbackDays))
	}
	if s.metrics != nil {
		s.metrics.SetStaleCourses(len(stale))
	}
	s.logger.Info("inactivity sweep finished", zap.Int("stale_courses", len(stale)))
	return nil
}
