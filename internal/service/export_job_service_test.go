package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type exportStoreStub struct {
	jobs      map[string]*models.ExportJob
	updates   []repository.UpdateExportJobParams
	createErr error
}

func newExportStoreStub() *exportStoreStub {
	return &exportStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if s.createErr != nil {
		return s.createErr
	}
	if job.ID == "" {
		job.ID = "job-1"
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *exportStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := s.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exportStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	s.updates = append(s.updates, params)
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type dispatcherStub struct {
	enqueued []jobs.Job
	err      error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type exportGeneratorStub struct {
	result *ExportResult
	err    error
	calls  int
}

func (g *exportGeneratorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	g.calls++
	return g.result, g.err
}

func TestExportJobCreateEnqueues(t *testing.T) {
	store := newExportStoreStub()
	dispatcher := &dispatcherStub{}
	svc := NewExportJobService(store, dispatcher, nil, nil, nil, ExportJobServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), "org-1", "prj-1", "ver-1",
		dto.ExportRequest{Type: models.ExportTypeIssues, Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, resp.ID, dispatcher.enqueued[0].ID)

	stored := store.jobs[resp.ID]
	assert.Equal(t, "ver-1", stored.Params.VersionID)
	assert.Equal(t, "org-1", stored.Params.OrganizationID)
	assert.Equal(t, "user-1", stored.CreatedBy)
}

func TestExportJobCreateRejectsBadRequest(t *testing.T) {
	svc := NewExportJobService(newExportStoreStub(), &dispatcherStub{}, nil, nil, nil, ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), "org-1", "prj-1", "ver-1",
		dto.ExportRequest{Type: "schedules", Format: models.ExportFormatCSV}, "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportJobCreateMarksFailedWhenEnqueueFails(t *testing.T) {
	store := newExportStoreStub()
	dispatcher := &dispatcherStub{err: errors.New("queue closed")}
	svc := NewExportJobService(store, dispatcher, nil, nil, nil, ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), "org-1", "prj-1", "ver-1",
		dto.ExportRequest{Type: models.ExportTypeSummary, Format: models.ExportFormatPDF}, "user-1")
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportJobGetStatus(t *testing.T) {
	store := newExportStoreStub()
	url := "/api/v1/exports/download/tok"
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100, ResultURL: &url}
	svc := NewExportJobService(store, &dispatcherStub{}, nil, nil, nil, ExportJobServiceConfig{})

	resp, err := svc.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, resp.Status)
	assert.Equal(t, 100, resp.Progress)
	require.NotNil(t, resp.ResultURL)
	assert.Equal(t, url, *resp.ResultURL)

	_, err = svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
}

func TestExportJobRecoverPendingJobs(t *testing.T) {
	store := newExportStoreStub()
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	store.jobs["job-2"] = &models.ExportJob{ID: "job-2", Status: models.ExportStatusFinished}
	dispatcher := &dispatcherStub{}
	svc := NewExportJobService(store, dispatcher, nil, nil, nil, ExportJobServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, "job-1", dispatcher.enqueued[0].ID)
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	store := newExportStoreStub()
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	generator := &exportGeneratorStub{result: &ExportResult{URL: "/api/v1/exports/download/tok"}}
	worker := NewExportWorker(store, generator, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))

	job := store.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/exports/download/tok", *job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestExportWorkerHandleRetriesBeforeFailing(t *testing.T) {
	store := newExportStoreStub()
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	generator := &exportGeneratorStub{err: errors.New("render boom")}
	worker := NewExportWorker(store, generator, 2, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, store.jobs["job-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, store.jobs["job-1"].Status)
	require.NotNil(t, store.jobs["job-1"].ErrorMessage)
	assert.Equal(t, "render boom", *store.jobs["job-1"].ErrorMessage)
}
