package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type solverJobStore interface {
	Create(ctx context.Context, job *models.SolverJob) error
	GetByID(ctx context.Context, id string) (*models.SolverJob, error)
	Update(ctx context.Context, id string, params repository.UpdateSolverJobParams) error
	ListUnfinished(ctx context.Context, limit int) ([]models.SolverJob, error)
	ListByVersion(ctx context.Context, versionID string) ([]models.SolverJob, error)
}

type solverGateway interface {
	Submit(ctx context.Context, kind models.SolverJobKind, doc *models.VersionJSONData) (string, error)
	Status(ctx context.Context, remoteID string) (*RemoteJobState, error)
	Cancel(ctx context.Context, remoteID string) error
}

type documentLoader interface {
	LoadDocument(ctx context.Context, id string) (*models.Version, *models.VersionJSONData, error)
}

// SolverServiceConfig tunes polling of remote jobs.
type SolverServiceConfig struct {
	PollInterval time.Duration
}

// SolverService tracks jobs handed off to the external scheduling
// service. The solver owns the computation; this service only submits
// documents, polls for completion and records outcomes locally.
type SolverService struct {
	store    solverJobStore
	client   solverGateway
	versions documentLoader
	queue    *jobs.Queue
	logger   *zap.Logger
	cfg      SolverServiceConfig
}

// NewSolverService constructs the solver service. Call AttachQueue before
// submitting jobs so poll work has somewhere to run.
func NewSolverService(store solverJobStore, client solverGateway, versions documentLoader, logger *zap.Logger, cfg SolverServiceConfig) *SolverService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolverService{store: store, client: client, versions: versions, logger: logger, cfg: cfg}
}

// AttachQueue wires the poll queue once it exists.
func (s *SolverService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Submit sends a version document to the solver and starts tracking it.
func (s *SolverService) Submit(ctx context.Context, versionID string, req dto.SubmitSolverJobRequest) (*dto.SolverJobResponse, error) {
	kind := req.Kind
	if kind != models.SolverJobKindSolve && kind != models.SolverJobKindDiagnostics {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be solve or diagnostics")
	}

	_, doc, err := s.versions.LoadDocument(ctx, versionID)
	if err != nil {
		return nil, err
	}

	remoteID, err := s.client.Submit(ctx, kind, doc)
	if err != nil {
		return nil, err
	}

	job := &models.SolverJob{
		RemoteID:  remoteID,
		VersionID: versionID,
		Kind:      kind,
		Status:    models.SolverJobStatusPending,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record solver job")
	}
	s.enqueuePoll(job.ID)
	return solverJobResponse(job), nil
}

// Get returns the local tracking state of a job.
func (s *SolverService) Get(ctx context.Context, jobID string) (*dto.SolverJobResponse, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return solverJobResponse(job), nil
}

// ListByVersion returns all jobs submitted for a version, newest first.
func (s *SolverService) ListByVersion(ctx context.Context, versionID string) ([]dto.SolverJobResponse, error) {
	records, err := s.store.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solver jobs")
	}
	out := make([]dto.SolverJobResponse, 0, len(records))
	for i := range records {
		out = append(out, *solverJobResponse(&records[i]))
	}
	return out, nil
}

// Cancel aborts a job on the solver and marks it cancelled locally.
func (s *SolverService) Cancel(ctx context.Context, jobID string) (*dto.SolverJobResponse, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if isTerminalSolverStatus(job.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "solver job already finished")
	}
	if err := s.client.Cancel(ctx, job.RemoteID); err != nil {
		return nil, err
	}
	cancelled := models.SolverJobStatusCancelled
	if err := s.store.Update(ctx, job.ID, repository.UpdateSolverJobParams{Status: &cancelled}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update solver job")
	}
	job.Status = cancelled
	return solverJobResponse(job), nil
}

// RecoverUnfinishedJobs re-arms polling for jobs left over from a previous
// process. Call once on boot, after the queue is started.
func (s *SolverService) RecoverUnfinishedJobs(ctx context.Context) error {
	records, err := s.store.ListUnfinished(ctx, 100)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unfinished solver jobs")
	}
	for _, record := range records {
		s.enqueuePoll(record.ID)
	}
	if len(records) > 0 {
		s.logger.Info("recovered solver jobs", zap.Int("count", len(records)))
	}
	return nil
}

// Poll drives one tracked job to completion. It blocks its worker until
// the remote job reaches a terminal state or the context is cancelled.
func (s *SolverService) Poll(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("solver poll job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		done, err := s.pollOnce(ctx, jobID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *SolverService) pollOnce(ctx context.Context, jobID string) (bool, error) {
	record, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return true, nil
		}
		return false, err
	}
	if isTerminalSolverStatus(record.Status) {
		return true, nil
	}

	state, err := s.client.Status(ctx, record.RemoteID)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			// The solver forgot the job; without remote state it can
			// never finish.
			failed := models.SolverJobStatusFailed
			_ = s.store.Update(ctx, record.ID, repository.UpdateSolverJobParams{Status: &failed})
			return true, nil
		}
		return false, err
	}

	status := mapRemoteSolverStatus(state.Status)
	params := repository.UpdateSolverJobParams{Status: &status}
	if len(state.Result) > 0 {
		result := types.JSONText(state.Result)
		params.Result = &result
	}
	if status != record.Status || params.Result != nil {
		if err := s.store.Update(ctx, record.ID, params); err != nil {
			return false, err
		}
	}
	if isTerminalSolverStatus(status) {
		s.logger.Info("solver job finished",
			zap.String("job_id", record.ID),
			zap.String("remote_id", record.RemoteID),
			zap.String("status", string(status)),
		)
		return true, nil
	}
	return false, nil
}

func (s *SolverService) enqueuePoll(jobID string) {
	if s.queue == nil {
		s.logger.Warn("solver queue not attached, job will rely on recovery", zap.String("job_id", jobID))
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "solver_poll", Payload: jobID}); err != nil {
		s.logger.Error("failed to enqueue solver poll", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *SolverService) findJob(ctx context.Context, jobID string) (*models.SolverJob, error) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solver job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver job")
	}
	return job, nil
}

func solverJobResponse(job *models.SolverJob) *dto.SolverJobResponse {
	resp := &dto.SolverJobResponse{
		ID:          job.ID,
		VersionID:   job.VersionID,
		Kind:        job.Kind,
		Status:      job.Status,
		SubmittedAt: job.SubmittedAt,
		UpdatedAt:   job.UpdatedAt,
	}
	if len(job.Result) > 0 {
		resp.Result = []byte(job.Result)
	}
	return resp
}

func isTerminalSolverStatus(status models.SolverJobStatus) bool {
	switch status {
	case models.SolverJobStatusCompleted, models.SolverJobStatusFailed, models.SolverJobStatusCancelled:
		return true
	}
	return false
}

func mapRemoteSolverStatus(raw string) models.SolverJobStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "QUEUED":
		return models.SolverJobStatusPending
	case "RUNNING", "IN_PROGRESS":
		return models.SolverJobStatusRunning
	case "COMPLETED", "DONE", "FINISHED":
		return models.SolverJobStatusCompleted
	case "CANCELLED", "CANCELED":
		return models.SolverJobStatusCancelled
	default:
		return models.SolverJobStatusFailed
	}
}
