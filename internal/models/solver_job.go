package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SolverJobKind distinguishes full solves from diagnostics-only runs.
type SolverJobKind string

const (
	SolverJobKindSolve       SolverJobKind = "solve"
	SolverJobKindDiagnostics SolverJobKind = "diagnostics"
)

// SolverJobStatus tracks the lifecycle of a remote solver job.
type SolverJobStatus string

const (
	SolverJobStatusPending   SolverJobStatus = "PENDING"
	SolverJobStatusRunning   SolverJobStatus = "RUNNING"
	SolverJobStatusCompleted SolverJobStatus = "COMPLETED"
	SolverJobStatusFailed    SolverJobStatus = "FAILED"
	SolverJobStatusCancelled SolverJobStatus = "CANCELLED"
)

// SolverJob is the local tracking record for a job submitted to the
// external scheduling service. Result holds the raw diagnostics payload
// delivered when the job finishes.
type SolverJob struct {
	ID          string          `db:"id" json:"id"`
	RemoteID    string          `db:"remote_id" json:"remote_id"`
	VersionID   string          `db:"version_id" json:"version_id"`
	Kind        SolverJobKind   `db:"kind" json:"kind"`
	Status      SolverJobStatus `db:"status" json:"status"`
	Result      types.JSONText  `db:"result" json:"result,omitempty"`
	SubmittedAt time.Time       `db:"submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
