package models

import "time"

// Version is the metadata row for one immutable document snapshot. The
// JSON payload itself lives in blob storage keyed by BlobKey; versions are
// append-only and never mutated after creation.
type Version struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	Number    int       `db:"number" json:"number"`
	Label     string    `db:"label" json:"label"`
	BlobKey   string    `db:"blob_key" json:"-"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// VersionSummary is lightweight metadata for version list views.
type VersionSummary struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
