package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type fakeDashboardService struct {
	resp   *dto.ProjectDashboardResponse
	cached bool
	err    error

	lastOrg     string
	lastProject string
	lastVersion string
}

func (f *fakeDashboardService) Project(ctx context.Context, orgID, projectID, versionID string) (*dto.ProjectDashboardResponse, bool, error) {
	f.lastOrg = orgID
	f.lastProject = projectID
	f.lastVersion = versionID
	return f.resp, f.cached, f.err
}

func TestDashboardHandlerProject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeDashboardService{
		resp:   &dto.ProjectDashboardResponse{ProjectID: "proj-1", VersionID: "ver-1"},
		cached: true,
	}
	handler := NewDashboardHandler(fake)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/organizations/org-1/projects/proj-1/dashboard?versionId=ver-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "orgId", Value: "org-1"}, {Key: "projectId", Value: "proj-1"}}

	handler.Project(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "org-1", fake.lastOrg)
	assert.Equal(t, "proj-1", fake.lastProject)
	assert.Equal(t, "ver-1", fake.lastVersion)

	var body struct {
		Data dto.ProjectDashboardResponse `json:"data"`
		Meta map[string]interface{}       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ver-1", body.Data.VersionID)
	assert.Equal(t, true, body.Meta["cached"])
}

func TestDashboardHandlerProjectNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeDashboardService{err: appErrors.ErrNotFound}
	handler := NewDashboardHandler(fake)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/organizations/org-1/projects/missing/dashboard", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "orgId", Value: "org-1"}, {Key: "projectId", Value: "missing"}}

	handler.Project(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardHandlerNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/organizations/org-1/projects/proj-1/dashboard", nil)
	c.Request = req

	handler.Project(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
