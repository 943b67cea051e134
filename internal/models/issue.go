package models

// IssueType classifies validation findings by severity.
type IssueType string

const (
	IssueTypeError   IssueType = "error"
	IssueTypeWarning IssueType = "warning"
	IssueTypeInfo    IssueType = "info"
)

// IssueAction is an optional fix-it navigation target for an issue.
type IssueAction struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Issue is a single validation finding. The id is derived from the rule and
// the entities involved, so re-running validation after unrelated edits
// yields the same id and deep links of the form "issue-<id>" keep resolving.
type Issue struct {
	ID             string       `json:"id"`
	Type           IssueType    `json:"type"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Details        string       `json:"details,omitempty"`
	Recommendation string       `json:"recommendation,omitempty"`
	Action         *IssueAction `json:"action,omitempty"`
}

// ValidationResult aggregates the output of one full validation pass.
type ValidationResult struct {
	OrganizationID string  `json:"organization_id"`
	ProjectID      string  `json:"project_id"`
	VersionID      string  `json:"version_id"`
	Issues         []Issue `json:"issues"`
	ErrorCount     int     `json:"error_count"`
	WarningCount   int     `json:"warning_count"`
	InfoCount      int     `json:"info_count"`
}

// ProgressStat is a count/total pair with a rounded percentage. Percentage
// is 0 when total is 0.
type ProgressStat struct {
	Count      int `json:"count"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// VersionProgress summarises build/schedule/staffing completion for a
// version document.
type VersionProgress struct {
	BlocksBuilt      ProgressStat `json:"blocks_built"`
	LessonsScheduled ProgressStat `json:"lessons_scheduled"`
	LessonsStaffed   ProgressStat `json:"lessons_staffed"`
	Overall          int          `json:"overall"`
}
