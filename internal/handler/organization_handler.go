package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// OrganizationHandler exposes organization endpoints.
type OrganizationHandler struct {
	organizations *service.OrganizationService
}

// NewOrganizationHandler constructs OrganizationHandler.
func NewOrganizationHandler(organizations *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations}
}

// List godoc
// @Summary List organizations
// @Tags Organizations
// @Produce json
// @Param search query string false "Search by name or slug"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	var filter models.OrganizationFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	organizations, pagination, err := h.organizations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, organizations, pagination)
}

// Get godoc
// @Summary Get organization detail
// @Tags Organizations
// @Produce json
// @Param orgId path string true "Organization ID"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	organization, err := h.organizations.Get(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, organization, nil)
}

// Create godoc
// @Summary Create organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param payload body dto.CreateOrganizationRequest true "Organization payload"
// @Success 201 {object} response.Envelope
// @Router /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req dto.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid organization payload"))
		return
	}
	organization, err := h.organizations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, organization)
}

// Update godoc
// @Summary Update organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param payload body dto.UpdateOrganizationRequest true "Organization payload"
// @Success 200 {object} response.Envelope
// @Router /organizations/{orgId} [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req dto.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid organization payload"))
		return
	}
	organization, err := h.organizations.Update(c.Request.Context(), c.Param("orgId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, organization, nil)
}

// Delete godoc
// @Summary Delete organization
// @Tags Organizations
// @Param orgId path string true "Organization ID"
// @Success 204
// @Router /organizations/{orgId} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if err := h.organizations.Delete(c.Request.Context(), c.Param("orgId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
