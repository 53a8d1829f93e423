package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

type fakeDashboardRepo struct {
	feedbackCount int
	courseCount   int
	average       *float64
	topCourses    []models.CourseRatingSummary
	recent        []models.FeedbackWithCourse
	lastScope     models.FeedbackScope
}

func (f *fakeDashboardRepo) CountFeedback(ctx context.Context, tenantID string, scope models.FeedbackScope) (int, error) {
	f.lastScope = scope
	return f.feedbackCount, nil
}

func (f *fakeDashboardRepo) CountCourses(ctx context.Context, tenantID string, scope models.FeedbackScope) (int, error) {
	return f.courseCount, nil
}

func (f *fakeDashboardRepo) AverageRating(ctx context.Context, tenantID string, scope models.FeedbackScope) (*float64, error) {
	return f.average, nil
}

func (f *fakeDashboardRepo) TopCoursesByRating(ctx context.Context, tenantID string, scope models.FeedbackScope, limit int) ([]models.CourseRatingSummary, error) {
	return f.topCourses, nil
}

func (f *fakeDashboardRepo) RecentFeedback(ctx context.Context, tenantID string, scope models.FeedbackScope, limit int) ([]models.FeedbackWithCourse, error) {
	return f.recent, nil
}

func TestDashboardServiceSummaryEmpty(t *testing.T) {
	repo := &fakeDashboardRepo{}
	svc := NewDashboardService(repo, nil, DashboardServiceConfig{}, zap.NewNop())

	summary, cached, err := svc.Summary(context.Background(), adminActor)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 0, summary.TotalFeedbackCount)
	assert.Nil(t, summary.AverageRating)
	assert.Equal(t, "ADMIN", summary.UserRole)
	assert.Empty(t, summary.TopCoursesByRating)
}

func TestDashboardServiceSummaryScoped(t *testing.T) {
	avg := 4.2
	repo := &fakeDashboardRepo{
		feedbackCount: 7,
		courseCount:   3,
		average:       &avg,
		topCourses: []models.CourseRatingSummary{
			{CourseID: "course-1", CourseName: "Algorithms", AverageRating: 4.5, FeedbackCount: 4},
		},
		recent: []models.FeedbackWithCourse{
			{Feedback: models.Feedback{StudentName: "Grace Hopper", Rating: 5, CreatedAt: time.Now()}, CourseName: "Algorithms"},
		},
	}
	svc := NewDashboardService(repo, nil, DashboardServiceConfig{}, zap.NewNop())

	summary, _, err := svc.Summary(context.Background(), teacherActor)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", repo.lastScope.InstructorName)
	assert.Equal(t, "TEACHER", summary.UserRole)
	require.NotNil(t, summary.AverageRating)
	assert.InDelta(t, 4.2, *summary.AverageRating, 0.001)
	require.Len(t, summary.TopCoursesByRating, 1)
	assert.Equal(t, "Algorithms", summary.TopCoursesByRating[0].CourseName)
	require.Len(t, summary.RecentFeedbacks, 1)
	assert.Equal(t, 5, summary.RecentFeedbacks[0].Rating)
}

func TestDashboardServiceExportCSV(t *testing.T) {
	avg := 3.5
	repo := &fakeDashboardRepo{feedbackCount: 2, courseCount: 1, average: &avg}
	svc := NewDashboardService(repo, nil, DashboardServiceConfig{}, zap.NewNop())

	payload, filename, err := svc.Export(context.Background(), adminActor, DashboardFormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	content := string(payload)
	assert.Contains(t, content, "section,name,value")
	assert.Contains(t, content, "feedback_count,2")
	assert.Contains(t, content, "average_rating,3.50")
}

func TestDashboardServiceExportPDF(t *testing.T) {
	repo := &fakeDashboardRepo{}
	svc := NewDashboardService(repo, nil, DashboardServiceConfig{}, zap.NewNop())

	payload, filename, err := svc.Export(context.Background(), adminActor, DashboardFormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestDashboardServiceExportUnknownFormat(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardRepo{}, nil, DashboardServiceConfig{}, zap.NewNop())

	_, _, err := svc.Export(context.Background(), adminActor, DashboardFormat("xlsx"))
	require.Error(t, err)
}
