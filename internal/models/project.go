package models

import "time"

// Project is a timetable build effort within an organization. Its data
// lives in versioned JSON documents, not in relational rows.
type Project struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures filters for listing projects.
type ProjectFilter struct {
	OrganizationID string
	Search         string
	Page           int
	PageSize       int
}
