package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/dto"
	"github.com/arkanlabs/course-feedback-api/internal/models"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
	"github.com/arkanlabs/course-feedback-api/pkg/export"
)

type dashboardRepository interface {
	CountFeedback(ctx context.Context, tenantID string, scope models.FeedbackScope) (int, error)
	CountCourses(ctx context.Context, tenantID string, scope models.FeedbackScope) (int, error)
	AverageRating(ctx context.Context, tenantID string, scope models.FeedbackScope) (*float64, error)
	TopCoursesByRating(ctx context.Context, tenantID string, scope models.FeedbackScope, limit int) ([]models.CourseRatingSummary, error)
	RecentFeedback(ctx context.Context, tenantID string, scope models.FeedbackScope, limit int) ([]models.FeedbackWithCourse, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// DashboardFormat selects the export rendering.
type DashboardFormat string

const (
	DashboardFormatCSV DashboardFormat = "csv"
	DashboardFormatPDF DashboardFormat = "pdf"
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL        time.Duration
	TopCoursesLimit int
	RecentLimit     int
}

// DashboardService composes the role-scoped summary payload.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRepository, cache *CacheService, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopCoursesLimit <= 0 {
		cfg.TopCoursesLimit = 5
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Summary returns the dashboard payload for the actor and reports whether it
// was served from cache. The summary is scoped exactly like the list
// endpoints: students see their submissions, teachers their courses.
func (s *DashboardService) Summary(ctx context.Context, actor models.Actor) (*dto.DashboardResponse, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:%s:%s:%s", actor.TenantID, actor.Role, actor.UserID)
	if s.cache != nil {
		var cached dto.DashboardResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx, actor)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return summary, false, nil
}

// Export renders the dashboard summary in the requested format and returns
// the payload with a filename.
func (s *DashboardService) Export(ctx context.Context, actor models.Actor, format DashboardFormat) ([]byte, string, error) {
	summary, _, err := s.Summary(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	dataset := s.buildDataset(summary)
	stamp := s.now().UTC().Format("20060102-150405")
	switch format {
	case DashboardFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, fmt.Sprintf("dashboard-%s.csv", stamp), nil
	case DashboardFormatPDF:
		payload, err := s.pdf.Render(dataset, "Course Feedback Dashboard")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, fmt.Sprintf("dashboard-%s.pdf", stamp), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *DashboardService) compose(ctx context.Context, actor models.Actor) (*dto.DashboardResponse, error) {
	scope := feedbackScopeFor(actor)

	feedbackCount, err := s.repo.CountFeedback(ctx, actor.TenantID, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count feedback")
	}
	courseCount, err := s.repo.CountCourses(ctx, actor.TenantID, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	average, err := s.repo.AverageRating(ctx, actor.TenantID, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute average rating")
	}
	topCourses, err := s.repo.TopCoursesByRating(ctx, actor.TenantID, scope, s.cfg.TopCoursesLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load top courses")
	}
	recent, err := s.repo.RecentFeedback(ctx, actor.TenantID, scope, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent feedback")
	}

	summary := &dto.DashboardResponse{
		TotalFeedbackCount: feedbackCount,
		TotalCourseCount:   courseCount,
		AverageRating:      average,
		UserRole:           string(actor.Role),
		TopCoursesByRating: make([]dto.TopCourse, 0, len(topCourses)),
		RecentFeedbacks:    make([]dto.RecentFeedback, 0, len(recent)),
	}
	for _, course := range topCourses {
		summary.TopCoursesByRating = append(summary.TopCoursesByRating, dto.TopCourse{
			CourseName:    course.CourseName,
			AverageRating: course.AverageRating,
			FeedbackCount: course.FeedbackCount,
		})
	}
	for _, feedback := range recent {
		summary.RecentFeedbacks = append(summary.RecentFeedbacks, dto.RecentFeedback{
			StudentName: feedback.StudentName,
			CourseName:  feedback.CourseName,
			Rating:      feedback.Rating,
			CreatedDate: feedback.CreatedAt,
		})
	}
	return summary, nil
}

func (s *DashboardService) buildDataset(summary *dto.DashboardResponse) export.Dataset {
	average := ""
	if summary.AverageRating != nil {
		average = strconv.FormatFloat(*summary.AverageRating, 'f', 2, 64)
	}

	rows := []map[string]string{
		{"section": "totals", "name": "feedback_count", "value": strconv.Itoa(summary.TotalFeedbackCount)},
		{"section": "totals", "name": "course_count", "value": strconv.Itoa(summary.TotalCourseCount)},
		{"section": "totals", "name": "average_rating", "value": average},
	}
	for _, course := range summary.TopCoursesByRating {
		rows = append(rows, map[string]string{
			"section": "top_courses",
			"name":    course.CourseName,
			"value":   strconv.FormatFloat(course.AverageRating, 'f', 2, 64),
		})
	}
	for _, feedback := range summary.RecentFeedbacks {
		rows = append(rows, map[string]string{
			"section": "recent_feedback",
			"name":    fmt.Sprintf("%s / %s", feedback.CourseName, feedback.StudentName),
			"value":   strconv.Itoa(feedback.Rating),
		})
	}

	return export.Dataset{
		Headers: []string{"section", "name", "value"},
		Rows:    rows,
	}
}
