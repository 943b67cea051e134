package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ruleEvaluator is one independent validation rule. Evaluators never
// depend on each other's output and run in the fixed order below so that
// repeated runs yield identical issue ordering.
type ruleEvaluator struct {
	name string
	fn   func(doc *models.VersionJSONData, idx *entityIndex) []models.Issue
}

var validationRules = []ruleEvaluator{
	{name: "referential_integrity", fn: evaluateReferentialIntegrity},
	{name: "student_conflicts", fn: evaluateStudentConflicts},
	{name: "teacher_conflicts", fn: evaluateTeacherConflicts},
	{name: "specialist_coverage", fn: evaluateSpecialistCoverage},
	{name: "class_spacing", fn: evaluateClassSpacing},
	{name: "teacher_capacity", fn: evaluateTeacherCapacity},
	{name: "double_lesson_restrictions", fn: evaluateDoubleLessonRestrictions},
	{name: "teacher_daily_load", fn: evaluateTeacherDailyLoad},
}

// RunValidationSync builds the entity index once, runs every rule against
// it and aggregates counts by severity. It is a pure function of its
// inputs: the same document always yields bit-identical output, and it
// never panics on malformed-but-parseable documents.
func RunValidationSync(doc *models.VersionJSONData, orgID, projectID, versionID string) models.ValidationResult {
	result := models.ValidationResult{
		OrganizationID: orgID,
		ProjectID:      projectID,
		VersionID:      versionID,
		Issues:         []models.Issue{},
	}
	if doc == nil {
		return result
	}

	idx := buildEntityIndex(doc)
	for _, rule := range validationRules {
		result.Issues = append(result.Issues, rule.fn(doc, idx)...)
	}

	for _, issue := range result.Issues {
		switch issue.Type {
		case models.IssueTypeError:
			result.ErrorCount++
		case models.IssueTypeWarning:
			result.WarningCount++
		case models.IssueTypeInfo:
			result.InfoCount++
		}
	}
	return result
}

// FindIssue resolves a deep-link id ("issue-<id>" fragments strip the
// prefix before calling) back to the issue in a result.
func FindIssue(result models.ValidationResult, id string) (models.Issue, bool) {
	for _, issue := range result.Issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return models.Issue{}, false
}

// ValidationService runs the rules engine for API consumers and logs pass
// timings. All state lives in the arguments; the service itself only
// carries infrastructure.
type ValidationService struct {
	logger *zap.Logger
}

// NewValidationService constructs the service.
func NewValidationService(logger *zap.Logger) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{logger: logger}
}

// Validate runs one full synchronous validation pass.
func (s *ValidationService) Validate(doc *models.VersionJSONData, orgID, projectID, versionID string) models.ValidationResult {
	start := time.Now()
	result := RunValidationSync(doc, orgID, projectID, versionID)
	s.logger.Debug("validation pass complete",
		zap.String("version_id", versionID),
		zap.Int("issues", len(result.Issues)),
		zap.Int("errors", result.ErrorCount),
		zap.Duration("took", time.Since(start)),
	)
	return result
}
