package dto

import "github.com/noah-isme/timetable-api/internal/models"

// ExportRequest starts an asynchronous export of a version's validation
// report.
type ExportRequest struct {
	Type   models.ExportType   `json:"type" validate:"required,oneof=issues progress summary"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse acknowledges job creation.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes polling state for an export job.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
