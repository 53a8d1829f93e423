package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/arkanlabs/course-feedback-api/internal/models"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
	"github.com/arkanlabs/course-feedback-api/pkg/response"
)

// RequirePermission gates a route on the actor's role grants. Row-level
// scoping stays in the services; this only answers "may this role call the
// operation at all".
func RequirePermission(perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !actor.IsGranted(perm) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
