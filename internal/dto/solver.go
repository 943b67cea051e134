package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SubmitSolverJobRequest asks the scheduling service to work on a version.
type SubmitSolverJobRequest struct {
	Kind models.SolverJobKind `json:"kind" validate:"required,oneof=solve diagnostics"`
}

// SolverJobResponse reports the local tracking state of a solver job.
type SolverJobResponse struct {
	ID          string                 `json:"id"`
	VersionID   string                 `json:"versionId"`
	Kind        models.SolverJobKind   `json:"kind"`
	Status      models.SolverJobStatus `json:"status"`
	Result      json.RawMessage        `json:"result,omitempty"`
	SubmittedAt time.Time              `json:"submittedAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}
