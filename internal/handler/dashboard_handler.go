package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arkanlabs/course-feedback-api/internal/service"
	"github.com/arkanlabs/course-feedback-api/pkg/response"
)

// DashboardHandler exposes the role-scoped summary endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary returns the dashboard payload for the caller.
func (h *DashboardHandler) Summary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	summary, cached, err := h.dashboard.Summary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	if cached {
		c.Header("X-Cache", "HIT")
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export streams the dashboard summary as CSV or PDF.
func (h *DashboardHandler) Export(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	format := service.DashboardFormat(c.DefaultQuery("format", "csv"))

	payload, filename, err := h.dashboard.Export(c.Request.Context(), actor, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if format == service.DashboardFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
