package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// ValidationHandler runs the rules engine against version documents.
type ValidationHandler struct {
	versions   *service.VersionService
	validation *service.ValidationService
}

// NewValidationHandler constructs ValidationHandler.
func NewValidationHandler(versions *service.VersionService, validation *service.ValidationService) *ValidationHandler {
	return &ValidationHandler{versions: versions, validation: validation}
}

// Validate godoc
// @Summary Run a full validation pass over a version document
// @Tags Validation
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/validation [get]
func (h *ValidationHandler) Validate(c *gin.Context) {
	_, doc, err := h.versions.LoadDocument(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result := h.validation.Validate(doc, c.Param("orgId"), c.Param("projectId"), c.Param("versionId"))
	response.JSON(c, http.StatusOK, result, nil)
}

// GetIssue godoc
// @Summary Resolve a single issue by its stable id
// @Tags Validation
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param issueId path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/validation/issues/{issueId} [get]
func (h *ValidationHandler) GetIssue(c *gin.Context) {
	_, doc, err := h.versions.LoadDocument(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result := h.validation.Validate(doc, c.Param("orgId"), c.Param("projectId"), c.Param("versionId"))
	issue, ok := service.FindIssue(result, c.Param("issueId"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "issue not found"))
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Progress godoc
// @Summary Scheduling progress metrics for a version
// @Tags Validation
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/progress [get]
func (h *ValidationHandler) Progress(c *gin.Context) {
	_, doc, err := h.versions.LoadDocument(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, service.CalculateProgress(doc), nil)
}
