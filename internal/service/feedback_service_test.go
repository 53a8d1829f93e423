package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/models"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
)

type mockFeedbackRepo struct {
	feedbacks   map[string]models.Feedback
	courseNames map[string]string
	counts      map[string]int
	lastFilter  models.FeedbackFilter
	deleted     []string
}

func (m *mockFeedbackRepo) List(ctx context.Context, tenantID string, filter models.FeedbackFilter) ([]models.FeedbackWithCourse, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func (m *mockFeedbackRepo) FindByID(ctx context.Context, tenantID, id string) (*models.Feedback, error) {
	if f, ok := m.feedbacks[id]; ok {
		return &f, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeedbackRepo) FindWithCourse(ctx context.Context, tenantID, id string) (*models.FeedbackWithCourse, error) {
	if f, ok := m.feedbacks[id]; ok {
		return &models.FeedbackWithCourse{Feedback: f, CourseName: m.courseNames[f.CourseID]}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeedbackRepo) CountByCourse(ctx context.Context, tenantID, courseID string) (int, error) {
	return m.counts[courseID], nil
}

func (m *mockFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	if m.feedbacks == nil {
		m.feedbacks = make(map[string]models.Feedback)
	}
	if feedback.ID == "" {
		feedback.ID = "generated"
	}
	m.feedbacks[feedback.ID] = *feedback
	return nil
}

func (m *mockFeedbackRepo) Update(ctx context.Context, feedback *models.Feedback) error {
	m.feedbacks[feedback.ID] = *feedback
	return nil
}

func (m *mockFeedbackRepo) SoftDelete(ctx context.Context, tenantID, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.feedbacks, id)
	return nil
}

type mockCourseFinder struct {
	courses map[string]models.Course
}

func (m *mockCourseFinder) FindByID(ctx context.Context, tenantID, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockQuota struct {
	limit int
	err   error
}

func (m *mockQuota) MaxFeedbackPerCourse(ctx context.Context, tenantID string) (int, error) {
	return m.limit, m.err
}

func newFeedbackService(repo *mockFeedbackRepo, courses *mockCourseFinder, quota *mockQuota) *FeedbackService {
	if courses == nil {
		courses = &mockCourseFinder{courses: map[string]models.Course{
			"course-1": {ID: "course-1", TenantID: "tenant-1", CourseName: "Algorithms", InstructorName: "Ada Lovelace", IsActive: true},
		}}
	}
	if quota == nil {
		quota = &mockQuota{}
	}
	return NewFeedbackService(repo, courses, quota, nil, validator.New(), zap.NewNop())
}

func TestFeedbackServiceListScopes(t *testing.T) {
	repo := &mockFeedbackRepo{}
	svc := newFeedbackService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), studentActor, models.FeedbackFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", repo.lastFilter.Scope.StudentName)
	assert.Empty(t, repo.lastFilter.Scope.InstructorName)

	_, _, err = svc.List(context.Background(), teacherActor, models.FeedbackFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", repo.lastFilter.Scope.InstructorName)
	assert.Empty(t, repo.lastFilter.Scope.StudentName)

	_, _, err = svc.List(context.Background(), adminActor, models.FeedbackFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackScope{}, repo.lastFilter.Scope)
}

func TestFeedbackServiceListIgnoresClientScope(t *testing.T) {
	repo := &mockFeedbackRepo{}
	svc := newFeedbackService(repo, nil, nil)

	filter := models.FeedbackFilter{Scope: models.FeedbackScope{StudentName: "Somebody Else"}}
	_, _, err := svc.List(context.Background(), studentActor, filter)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", repo.lastFilter.Scope.StudentName)
}

func TestFeedbackServiceCreateAssignsStudentName(t *testing.T) {
	repo := &mockFeedbackRepo{}
	svc := newFeedbackService(repo, nil, nil)

	feedback, err := svc.Create(context.Background(), studentActor, CreateFeedbackRequest{
		CourseID: "course-1",
		Comment:  "Great course",
		Rating:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", feedback.StudentName)
	assert.Equal(t, "tenant-1", feedback.TenantID)
}

func TestFeedbackServiceCreateRejectsNonStudents(t *testing.T) {
	svc := newFeedbackService(&mockFeedbackRepo{}, nil, nil)

	for _, actor := range []models.Actor{adminActor, teacherActor} {
		_, err := svc.Create(context.Background(), actor, CreateFeedbackRequest{
			CourseID: "course-1",
			Comment:  "Nice",
			Rating:   4,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestFeedbackServiceCreateMissingCourse(t *testing.T) {
	svc := newFeedbackService(&mockFeedbackRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), studentActor, CreateFeedbackRequest{
		CourseID: "nope",
		Comment:  "Nice",
		Rating:   4,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceCreateQuotaReached(t *testing.T) {
	repo := &mockFeedbackRepo{counts: map[string]int{"course-1": 2}}
	svc := newFeedbackService(repo, nil, &mockQuota{limit: 2})

	_, err := svc.Create(context.Background(), studentActor, CreateFeedbackRequest{
		CourseID: "course-1",
		Comment:  "One too many",
		Rating:   3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceCreateQuotaZeroUnlimited(t *testing.T) {
	repo := &mockFeedbackRepo{counts: map[string]int{"course-1": 500}}
	svc := newFeedbackService(repo, nil, &mockQuota{limit: 0})

	_, err := svc.Create(context.Background(), studentActor, CreateFeedbackRequest{
		CourseID: "course-1",
		Comment:  "Still fine",
		Rating:   3,
	})
	require.NoError(t, err)
}

func TestFeedbackServiceUpdateOwner(t *testing.T) {
	repo := &mockFeedbackRepo{feedbacks: map[string]models.Feedback{
		"fb-1": {ID: "fb-1", TenantID: "tenant-1", CourseID: "course-1", StudentName: "Grace Hopper", Comment: "ok", Rating: 3},
	}}
	svc := newFeedbackService(repo, nil, nil)

	feedback, err := svc.Update(context.Background(), studentActor, "fb-1", UpdateFeedbackRequest{Comment: "better", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "better", feedback.Comment)
	assert.Equal(t, 4, feedback.Rating)
}

func TestFeedbackServiceUpdateAdminHasNoOverride(t *testing.T) {
	repo := &mockFeedbackRepo{feedbacks: map[string]models.Feedback{
		"fb-1": {ID: "fb-1", TenantID: "tenant-1", CourseID: "course-1", StudentName: "Grace Hopper", Comment: "ok", Rating: 3},
	}}
	svc := newFeedbackService(repo, nil, nil)

	// Editing stays with the submitting student; admins can delete but not
	// rewrite someone else's words.
	_, err := svc.Update(context.Background(), adminActor, "fb-1", UpdateFeedbackRequest{Comment: "edited", Rating: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceDeleteAdminOverride(t *testing.T) {
	repo := &mockFeedbackRepo{feedbacks: map[string]models.Feedback{
		"fb-1": {ID: "fb-1", TenantID: "tenant-1", CourseID: "course-1", StudentName: "Grace Hopper"},
	}}
	svc := newFeedbackService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), adminActor, "fb-1"))
	assert.Equal(t, []string{"fb-1"}, repo.deleted)
}

func TestFeedbackServiceDeleteForeignRejected(t *testing.T) {
	repo := &mockFeedbackRepo{feedbacks: map[string]models.Feedback{
		"fb-1": {ID: "fb-1", TenantID: "tenant-1", CourseID: "course-1", StudentName: "Somebody Else"},
	}}
	svc := newFeedbackService(repo, nil, nil)

	err := svc.Delete(context.Background(), studentActor, "fb-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceGetTeacherVisibility(t *testing.T) {
	repo := &mockFeedbackRepo{
		feedbacks: map[string]models.Feedback{
			"fb-own":   {ID: "fb-own", TenantID: "tenant-1", CourseID: "course-1", StudentName: "Grace Hopper"},
			"fb-other": {ID: "fb-other", TenantID: "tenant-1", CourseID: "course-2", StudentName: "Grace Hopper"},
		},
		courseNames: map[string]string{"course-1": "Algorithms", "course-2": "Databases"},
	}
	courses := &mockCourseFinder{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TenantID: "tenant-1", CourseName: "Algorithms", InstructorName: "Ada Lovelace"},
		"course-2": {ID: "course-2", TenantID: "tenant-1", CourseName: "Databases", InstructorName: "Someone Else"},
	}}
	svc := newFeedbackService(repo, courses, nil)

	_, err := svc.Get(context.Background(), teacherActor, "fb-own")
	require.NoError(t, err)

	// Out-of-scope rows read as missing, not forbidden.
	_, err = svc.Get(context.Background(), teacherActor, "fb-other")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceGetStudentOwnOnly(t *testing.T) {
	repo := &mockFeedbackRepo{
		feedbacks: map[string]models.Feedback{
			"fb-1": {ID: "fb-1", TenantID: "tenant-1", CourseID: "course-1", StudentName: "Somebody Else"},
		},
		courseNames: map[string]string{"course-1": "Algorithms"},
	}
	svc := newFeedbackService(repo, nil, nil)

	_, err := svc.Get(context.Background(), studentActor, "fb-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
