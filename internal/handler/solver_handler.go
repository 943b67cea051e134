package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// SolverHandler exposes the external scheduling service integration.
type SolverHandler struct {
	solver *service.SolverService
}

// NewSolverHandler constructs SolverHandler.
func NewSolverHandler(solver *service.SolverService) *SolverHandler {
	return &SolverHandler{solver: solver}
}

// Submit godoc
// @Summary Submit a version document to the scheduling service
// @Tags Solver
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param payload body dto.SubmitSolverJobRequest true "Job payload"
// @Success 202 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/solver/jobs [post]
func (h *SolverHandler) Submit(c *gin.Context) {
	var req dto.SubmitSolverJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solver payload"))
		return
	}
	job, err := h.solver.Submit(c.Request.Context(), c.Param("versionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// List godoc
// @Summary List solver jobs submitted for a version
// @Tags Solver
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/solver/jobs [get]
func (h *SolverHandler) List(c *gin.Context) {
	records, err := h.solver.ListByVersion(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Get godoc
// @Summary Get solver job status
// @Tags Solver
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/solver/jobs/{jobId} [get]
func (h *SolverHandler) Get(c *gin.Context) {
	job, err := h.solver.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Cancel godoc
// @Summary Cancel a running solver job
// @Tags Solver
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/solver/jobs/{jobId}/cancel [post]
func (h *SolverHandler) Cancel(c *gin.Context) {
	job, err := h.solver.Cancel(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
