package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type dashboardService interface {
	Project(ctx context.Context, orgID, projectID, versionID string) (*dto.ProjectDashboardResponse, bool, error)
}

// DashboardHandler wires the dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Project godoc
// @Summary Project overview: progress, issue counts and version history
// @Tags Dashboard
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId query string false "Version ID (defaults to latest)"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/dashboard [get]
func (h *DashboardHandler) Project(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, cached, err := h.service.Project(c.Request.Context(), c.Param("orgId"), c.Param("projectId"), c.Query("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}
