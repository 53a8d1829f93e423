package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkanlabs/course-feedback-api/internal/dto"
	"github.com/arkanlabs/course-feedback-api/internal/middleware"
	"github.com/arkanlabs/course-feedback-api/internal/models"
	"github.com/arkanlabs/course-feedback-api/internal/service"
)

type stubDashboardRepo struct {
	feedbackCount int
	courseCount   int
	average       *float64
}

func (r stubDashboardRepo) CountFeedback(context.Context, string, models.FeedbackScope) (int, error) {
	return r.feedbackCount, nil
}

func (r stubDashboardRepo) CountCourses(context.Context, string, models.FeedbackScope) (int, error) {
	return r.courseCount, nil
}

func (r stubDashboardRepo) AverageRating(context.Context, string, models.FeedbackScope) (*float64, error) {
	return r.average, nil
}

func (r stubDashboardRepo) TopCoursesByRating(context.Context, string, models.FeedbackScope, int) ([]models.CourseRatingSummary, error) {
	return []models.CourseRatingSummary{
		{CourseID: "c-1", CourseName: "Compilers", AverageRating: 4.5, FeedbackCount: 2},
	}, nil
}

func (r stubDashboardRepo) RecentFeedback(context.Context, string, models.FeedbackScope, int) ([]models.FeedbackWithCourse, error) {
	return nil, nil
}

func newDashboardRouter(repo stubDashboardRepo, actor *models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(service.NewDashboardService(repo, nil, service.DashboardServiceConfig{}, nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ContextActorKey, *actor)
		}
		c.Next()
	})
	router.GET("/dashboard", h.Summary)
	router.GET("/dashboard/export", h.Export)
	return router
}

func TestDashboardHandlerSummary(t *testing.T) {
	average := 4.25
	router := newDashboardRouter(stubDashboardRepo{feedbackCount: 7, courseCount: 2, average: &average}, &testTeacher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// No cache wired in, so the response is always freshly computed.
	assert.Empty(t, rec.Header().Get("X-Cache"))

	var envelope struct {
		Data dto.DashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 7, envelope.Data.TotalFeedbackCount)
	assert.Equal(t, "TEACHER", envelope.Data.UserRole)
	require.NotNil(t, envelope.Data.AverageRating)
	assert.InDelta(t, 4.25, *envelope.Data.AverageRating, 0.001)
	require.Len(t, envelope.Data.TopCoursesByRating, 1)
	assert.Equal(t, "Compilers", envelope.Data.TopCoursesByRating[0].CourseName)
}

func TestDashboardHandlerExportCSV(t *testing.T) {
	router := newDashboardRouter(stubDashboardRepo{feedbackCount: 3, courseCount: 1}, &testAdmin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/export", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "section,name,value"))
}

func TestDashboardHandlerExportPDF(t *testing.T) {
	router := newDashboardRouter(stubDashboardRepo{}, &testAdmin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/export?format=pdf", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestDashboardHandlerExportUnknownFormat(t *testing.T) {
	router := newDashboardRouter(stubDashboardRepo{}, &testAdmin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/export?format=xlsx", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
