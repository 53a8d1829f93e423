package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

func performWithActor(t *testing.T, actor *models.Actor, perm models.Permission) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if actor != nil {
		router.Use(func(c *gin.Context) {
			c.Set(ContextActorKey, *actor)
			c.Next()
		})
	}
	router.GET("/probe", RequirePermission(perm), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequirePermissionGranted(t *testing.T) {
	actor := models.Actor{Role: models.RoleStudent, FullName: "Grace Hopper"}
	rec := performWithActor(t, &actor, models.PermFeedbacksCreate)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermissionDenied(t *testing.T) {
	// Admins intentionally lack the feedback create grant.
	actor := models.Actor{Role: models.RoleAdmin, FullName: "Admin User"}
	rec := performWithActor(t, &actor, models.PermFeedbacksCreate)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissionMissingActor(t *testing.T) {
	rec := performWithActor(t, nil, models.PermCoursesView)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
