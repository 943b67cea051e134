package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type solverStoreStub struct {
	jobs      map[string]*models.SolverJob
	updates   []repository.UpdateSolverJobParams
	createErr error
}

func newSolverStoreStub() *solverStoreStub {
	return &solverStoreStub{jobs: map[string]*models.SolverJob{}}
}

func (s *solverStoreStub) Create(ctx context.Context, job *models.SolverJob) error {
	if s.createErr != nil {
		return s.createErr
	}
	if job.ID == "" {
		job.ID = "job-1"
	}
	if job.Status == "" {
		job.Status = models.SolverJobStatusPending
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *solverStoreStub) GetByID(ctx context.Context, id string) (*models.SolverJob, error) {
	if job, ok := s.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *solverStoreStub) Update(ctx context.Context, id string, params repository.UpdateSolverJobParams) error {
	s.updates = append(s.updates, params)
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Result != nil {
		job.Result = *params.Result
	}
	return nil
}

func (s *solverStoreStub) ListUnfinished(ctx context.Context, limit int) ([]models.SolverJob, error) {
	var out []models.SolverJob
	for _, job := range s.jobs {
		if !isTerminalSolverStatus(job.Status) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *solverStoreStub) ListByVersion(ctx context.Context, versionID string) ([]models.SolverJob, error) {
	var out []models.SolverJob
	for _, job := range s.jobs {
		if job.VersionID == versionID {
			out = append(out, *job)
		}
	}
	return out, nil
}

type solverGatewayStub struct {
	remoteID  string
	submitErr error
	state     *RemoteJobState
	statusErr error
	cancelErr error
	cancelled []string
}

func (s *solverGatewayStub) Submit(ctx context.Context, kind models.SolverJobKind, doc *models.VersionJSONData) (string, error) {
	return s.remoteID, s.submitErr
}

func (s *solverGatewayStub) Status(ctx context.Context, remoteID string) (*RemoteJobState, error) {
	return s.state, s.statusErr
}

func (s *solverGatewayStub) Cancel(ctx context.Context, remoteID string) error {
	s.cancelled = append(s.cancelled, remoteID)
	return s.cancelErr
}

type versionDocStub struct {
	doc *models.VersionJSONData
	err error
}

func (s *versionDocStub) LoadDocument(ctx context.Context, id string) (*models.Version, *models.VersionJSONData, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return &models.Version{ID: id, ProjectID: "prj-1"}, s.doc, nil
}

func TestSolverSubmitTracksRemoteJob(t *testing.T) {
	store := newSolverStoreStub()
	gateway := &solverGatewayStub{remoteID: "remote-9"}
	svc := NewSolverService(store, gateway, &versionDocStub{doc: cleanDocument()}, nil, SolverServiceConfig{})

	resp, err := svc.Submit(context.Background(), "ver-1", dto.SubmitSolverJobRequest{Kind: models.SolverJobKindSolve})
	require.NoError(t, err)

	assert.Equal(t, models.SolverJobStatusPending, resp.Status)
	assert.Equal(t, "ver-1", resp.VersionID)
	require.Len(t, store.jobs, 1)
	assert.Equal(t, "remote-9", store.jobs[resp.ID].RemoteID)
}

func TestSolverSubmitRejectsUnknownKind(t *testing.T) {
	svc := NewSolverService(newSolverStoreStub(), &solverGatewayStub{}, &versionDocStub{doc: cleanDocument()}, nil, SolverServiceConfig{})

	_, err := svc.Submit(context.Background(), "ver-1", dto.SubmitSolverJobRequest{Kind: "optimise"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSolverSubmitPropagatesGatewayFailure(t *testing.T) {
	gateway := &solverGatewayStub{submitErr: appErrors.Clone(appErrors.ErrSolverUnavailable, "")}
	store := newSolverStoreStub()
	svc := NewSolverService(store, gateway, &versionDocStub{doc: cleanDocument()}, nil, SolverServiceConfig{})

	_, err := svc.Submit(context.Background(), "ver-1", dto.SubmitSolverJobRequest{Kind: models.SolverJobKindDiagnostics})
	require.Error(t, err)
	assert.Empty(t, store.jobs, "no local record without a remote job")
}

func TestSolverPollOnceRecordsCompletion(t *testing.T) {
	store := newSolverStoreStub()
	store.jobs["job-1"] = &models.SolverJob{ID: "job-1", RemoteID: "remote-1", Status: models.SolverJobStatusRunning}
	gateway := &solverGatewayStub{state: &RemoteJobState{
		ID:     "remote-1",
		Status: "completed",
		Result: json.RawMessage(`{"placed": 12}`),
	}}
	svc := NewSolverService(store, gateway, &versionDocStub{}, nil, SolverServiceConfig{})

	done, err := svc.pollOnce(context.Background(), "job-1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, models.SolverJobStatusCompleted, store.jobs["job-1"].Status)
	assert.JSONEq(t, `{"placed": 12}`, string(store.jobs["job-1"].Result))
}

func TestSolverPollOnceStillRunning(t *testing.T) {
	store := newSolverStoreStub()
	store.jobs["job-1"] = &models.SolverJob{ID: "job-1", RemoteID: "remote-1", Status: models.SolverJobStatusPending}
	gateway := &solverGatewayStub{state: &RemoteJobState{ID: "remote-1", Status: "running"}}
	svc := NewSolverService(store, gateway, &versionDocStub{}, nil, SolverServiceConfig{})

	done, err := svc.pollOnce(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, models.SolverJobStatusRunning, store.jobs["job-1"].Status)
}

func TestSolverPollOnceFailsForgottenJob(t *testing.T) {
	store := newSolverStoreStub()
	store.jobs["job-1"] = &models.SolverJob{ID: "job-1", RemoteID: "remote-1", Status: models.SolverJobStatusRunning}
	gateway := &solverGatewayStub{statusErr: appErrors.Clone(appErrors.ErrNotFound, "solver job not found")}
	svc := NewSolverService(store, gateway, &versionDocStub{}, nil, SolverServiceConfig{})

	done, err := svc.pollOnce(context.Background(), "job-1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, models.SolverJobStatusFailed, store.jobs["job-1"].Status)
}

func TestSolverCancelTerminalJobConflicts(t *testing.T) {
	store := newSolverStoreStub()
	store.jobs["job-1"] = &models.SolverJob{ID: "job-1", RemoteID: "remote-1", Status: models.SolverJobStatusCompleted}
	svc := NewSolverService(store, &solverGatewayStub{}, &versionDocStub{}, nil, SolverServiceConfig{})

	_, err := svc.Cancel(context.Background(), "job-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSolverCancelRunningJob(t *testing.T) {
	store := newSolverStoreStub()
	store.jobs["job-1"] = &models.SolverJob{ID: "job-1", RemoteID: "remote-1", Status: models.SolverJobStatusRunning}
	gateway := &solverGatewayStub{}
	svc := NewSolverService(store, gateway, &versionDocStub{}, nil, SolverServiceConfig{})

	resp, err := svc.Cancel(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.SolverJobStatusCancelled, resp.Status)
	assert.Equal(t, []string{"remote-1"}, gateway.cancelled)
}

func TestSolverClientSubmitAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/jobs":
			var req struct {
				Kind models.SolverJobKind `json:"kind"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, models.SolverJobKindSolve, req.Kind)
			_ = json.NewEncoder(w).Encode(RemoteJobState{ID: "remote-1", Status: "pending"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/jobs/remote-1":
			_ = json.NewEncoder(w).Encode(RemoteJobState{ID: "remote-1", Status: "completed", Result: json.RawMessage(`{}`)})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewSolverClient(server.URL, 0, nil)

	remoteID, err := client.Submit(context.Background(), models.SolverJobKindSolve, cleanDocument())
	require.NoError(t, err)
	assert.Equal(t, "remote-1", remoteID)

	state, err := client.Status(context.Background(), "remote-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", state.Status)
}

func TestSolverClientUnreachable(t *testing.T) {
	client := NewSolverClient("http://127.0.0.1:1", 0, nil)

	_, err := client.Submit(context.Background(), models.SolverJobKindSolve, cleanDocument())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSolverUnavailable.Code, appErr.Code)
}

func TestSolverClientMissingJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewSolverClient(server.URL, 0, nil)

	_, err := client.Status(context.Background(), "remote-x")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMapRemoteSolverStatus(t *testing.T) {
	assert.Equal(t, models.SolverJobStatusPending, mapRemoteSolverStatus("queued"))
	assert.Equal(t, models.SolverJobStatusRunning, mapRemoteSolverStatus("IN_PROGRESS"))
	assert.Equal(t, models.SolverJobStatusCompleted, mapRemoteSolverStatus("done"))
	assert.Equal(t, models.SolverJobStatusCancelled, mapRemoteSolverStatus("canceled"))
	assert.Equal(t, models.SolverJobStatusFailed, mapRemoteSolverStatus("exploded"))
}
