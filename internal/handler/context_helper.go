package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/arkanlabs/course-feedback-api/internal/middleware"
	"github.com/arkanlabs/course-feedback-api/internal/models"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
	"github.com/arkanlabs/course-feedback-api/pkg/response"
)

// requireActor fetches the actor resolved by the JWT middleware, writing a
// 401 response when absent.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}
