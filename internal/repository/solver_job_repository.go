package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SolverJobRepository tracks jobs submitted to the external scheduling
// service.
type SolverJobRepository struct {
	db *sqlx.DB
}

// NewSolverJobRepository constructs the repository.
func NewSolverJobRepository(db *sqlx.DB) *SolverJobRepository {
	return &SolverJobRepository{db: db}
}

// Create inserts a new solver job row with generated defaults.
func (r *SolverJobRepository) Create(ctx context.Context, job *models.SolverJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.SolverJobStatusPending
	}
	now := time.Now().UTC()
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = now
	}
	job.UpdatedAt = now
	const query = `INSERT INTO solver_jobs (id, remote_id, version_id, kind, status, result, submitted_at, updated_at)
VALUES (:id, :remote_id, :version_id, :kind, :status, :result, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create solver job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *SolverJobRepository) GetByID(ctx context.Context, id string) (*models.SolverJob, error) {
	const query = `SELECT id, remote_id, version_id, kind, status, result, submitted_at, updated_at
FROM solver_jobs WHERE id = $1`
	var job models.SolverJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get solver job: %w", err)
	}
	return &job, nil
}

// UpdateSolverJobParams defines the mutable fields.
type UpdateSolverJobParams struct {
	RemoteID *string
	Status   *models.SolverJobStatus
	Result   *types.JSONText
}

// Update persists the provided changes for a job row.
func (r *SolverJobRepository) Update(ctx context.Context, id string, params UpdateSolverJobParams) error {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	argPos := 1

	if params.RemoteID != nil {
		set = append(set, fmt.Sprintf("remote_id = $%d", argPos))
		args = append(args, *params.RemoteID)
		argPos++
	}
	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Result != nil {
		set = append(set, fmt.Sprintf("result = $%d", argPos))
		args = append(args, *params.Result)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	query := fmt.Sprintf("UPDATE solver_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update solver job: %w", err)
	}
	return nil
}

// ListUnfinished fetches pending and running jobs (used to resume polling
// after restart).
func (r *SolverJobRepository) ListUnfinished(ctx context.Context, limit int) ([]models.SolverJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, remote_id, version_id, kind, status, result, submitted_at, updated_at
FROM solver_jobs WHERE status IN ('PENDING', 'RUNNING') ORDER BY submitted_at ASC LIMIT $1`
	var jobs []models.SolverJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list unfinished solver jobs: %w", err)
	}
	return jobs, nil
}

// ListByVersion returns jobs submitted for a version, newest first.
func (r *SolverJobRepository) ListByVersion(ctx context.Context, versionID string) ([]models.SolverJob, error) {
	const query = `SELECT id, remote_id, version_id, kind, status, result, submitted_at, updated_at
FROM solver_jobs WHERE version_id = $1 ORDER BY submitted_at DESC`
	var jobs []models.SolverJob
	if err := r.db.SelectContext(ctx, &jobs, query, versionID); err != nil {
		return nil, fmt.Errorf("list solver jobs: %w", err)
	}
	return jobs, nil
}
