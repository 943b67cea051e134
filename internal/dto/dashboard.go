package dto

import "github.com/noah-isme/timetable-api/internal/models"

// ProjectDashboardResponse aggregates the read-only overview for one
// version: completion progress plus a validation digest.
type ProjectDashboardResponse struct {
	ProjectID string                  `json:"projectId"`
	VersionID string                  `json:"versionId"`
	Progress  models.VersionProgress  `json:"progress"`
	Issues    DashboardIssuesSection  `json:"issues"`
	Versions  []models.VersionSummary `json:"versions,omitempty"`
}

// DashboardIssuesSection summarises validation output without the full
// issue list.
type DashboardIssuesSection struct {
	ErrorCount   int            `json:"errorCount"`
	WarningCount int            `json:"warningCount"`
	InfoCount    int            `json:"infoCount"`
	TopIssues    []models.Issue `json:"topIssues,omitempty"`
}
