package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// VersionHandler exposes version snapshots and structural document edits.
type VersionHandler struct {
	versions *service.VersionService
}

// NewVersionHandler constructs VersionHandler.
func NewVersionHandler(versions *service.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// List godoc
// @Summary List versions of a project
// @Tags Versions
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions [get]
func (h *VersionHandler) List(c *gin.Context) {
	versions, err := h.versions.List(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// Create godoc
// @Summary Save a new version snapshot
// @Tags Versions
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param payload body dto.CreateVersionRequest true "Version payload"
// @Success 201 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions [post]
func (h *VersionHandler) Create(c *gin.Context) {
	var req dto.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid version payload"))
		return
	}
	version, err := h.versions.Create(c.Request.Context(), c.Param("projectId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// Latest godoc
// @Summary Get the latest version with its document
// @Tags Versions
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/latest [get]
func (h *VersionHandler) Latest(c *gin.Context) {
	version, err := h.versions.Latest(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Get godoc
// @Summary Get one version with its document
// @Tags Versions
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId} [get]
func (h *VersionHandler) Get(c *gin.Context) {
	version, err := h.versions.Get(c.Request.Context(), c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Delete godoc
// @Summary Delete a version snapshot
// @Tags Versions
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Success 204
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId} [delete]
func (h *VersionHandler) Delete(c *gin.Context) {
	if err := h.versions.Delete(c.Request.Context(), c.Param("versionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddBand godoc
// @Summary Add a band to a year group, saving a new version
// @Tags Versions
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param payload body dto.AddBandRequest true "Add band payload"
// @Success 201 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/bands [post]
func (h *VersionHandler) AddBand(c *gin.Context) {
	var req dto.AddBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid add band payload"))
		return
	}
	version, err := h.versions.AddBand(c.Request.Context(), c.Param("versionId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// RenameBand godoc
// @Summary Rename a band across the document, saving a new version
// @Tags Versions
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param bandId path string true "Band ID"
// @Param payload body dto.RenameBandRequest true "Rename payload"
// @Success 201 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/bands/{bandId}/rename [post]
func (h *VersionHandler) RenameBand(c *gin.Context) {
	var req dto.RenameBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rename payload"))
		return
	}
	version, err := h.versions.RenameBand(c.Request.Context(), c.Param("versionId"), c.Param("bandId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// DeleteBand godoc
// @Summary Remove a band and everything fed by it, saving a new version
// @Tags Versions
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param bandId path string true "Band ID"
// @Success 201 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/bands/{bandId} [delete]
func (h *VersionHandler) DeleteBand(c *gin.Context) {
	var req dto.MutationLabel
	_ = c.ShouldBindJSON(&req)
	version, err := h.versions.DeleteBand(c.Request.Context(), c.Param("versionId"), c.Param("bandId"), req.Label, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// DeleteYearGroup godoc
// @Summary Remove a year group with all bands and blocks, saving a new version
// @Tags Versions
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param yearGroupId path string true "Year group ID"
// @Success 201 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/year-groups/{yearGroupId} [delete]
func (h *VersionHandler) DeleteYearGroup(c *gin.Context) {
	var req dto.MutationLabel
	_ = c.ShouldBindJSON(&req)
	version, err := h.versions.DeleteYearGroup(c.Request.Context(), c.Param("versionId"), c.Param("yearGroupId"), req.Label, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// DuplicateYearGroup godoc
// @Summary Copy a year group structure into the next year, saving a new version
// @Tags Versions
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param projectId path string true "Project ID"
// @Param versionId path string true "Version ID"
// @Param yearGroupId path string true "Year group ID"
// @Success 201 {object} response.Envelope
// @Router /organizations/{orgId}/projects/{projectId}/versions/{versionId}/year-groups/{yearGroupId}/duplicate [post]
func (h *VersionHandler) DuplicateYearGroup(c *gin.Context) {
	var req dto.MutationLabel
	_ = c.ShouldBindJSON(&req)
	version, err := h.versions.DuplicateYearGroup(c.Request.Context(), c.Param("versionId"), c.Param("yearGroupId"), req.Label, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}
