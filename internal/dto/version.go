package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// CreateVersionRequest carries a full document snapshot to persist as the
// next version of a project.
type CreateVersionRequest struct {
	Label    string                  `json:"label" validate:"max=200"`
	Document *models.VersionJSONData `json:"document" validate:"required"`
}

// VersionResponse pairs version metadata with its document payload.
type VersionResponse struct {
	ID        string                  `json:"id"`
	ProjectID string                  `json:"projectId"`
	Number    int                     `json:"number"`
	Label     string                  `json:"label"`
	CreatedBy string                  `json:"createdBy"`
	CreatedAt time.Time               `json:"createdAt"`
	Document  *models.VersionJSONData `json:"document,omitempty"`
}

// AddBandRequest defines payload for the add-band edit. The band name is
// derived server-side from the year group's existing letter sequence.
type AddBandRequest struct {
	YearGroupID string `json:"yearGroupId" validate:"required"`
	Label       string `json:"label" validate:"max=200"`
}

// RenameBandRequest defines payload for the band rename edit.
type RenameBandRequest struct {
	NewName string `json:"newName" validate:"required,min=1,max=20"`
	Label   string `json:"label" validate:"max=200"`
}

// MutationLabel carries an optional label for structural edits that only
// identify their target through the URL.
type MutationLabel struct {
	Label string `json:"label" validate:"max=200"`
}
