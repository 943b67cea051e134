package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders validation reports for a version document and
// persists the generated files behind signed download URLs.
type ExportService struct {
	versions documentLoader
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(versions documentLoader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		versions: versions,
		storage:  storage,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	_, doc, err := s.versions.LoadDocument(ctx, job.Params.VersionID)
	if err != nil {
		return nil, err
	}

	dataset, title, err := s.buildDataset(doc, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	versionPart := sanitizeFilename(job.Params.VersionID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), versionPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(doc *models.VersionJSONData, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeIssues:
		return buildIssuesDataset(doc, job.Params), "Validation Issues " + job.Params.VersionID, nil
	case models.ExportTypeProgress:
		return buildProgressDataset(doc), "Scheduling Progress " + job.Params.VersionID, nil
	case models.ExportTypeSummary:
		return buildSummaryDataset(doc, job.Params), "Timetable Summary " + job.Params.VersionID, nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func buildIssuesDataset(doc *models.VersionJSONData, params models.ExportJobParams) export.Dataset {
	result := RunValidationSync(doc, params.OrganizationID, params.ProjectID, params.VersionID)
	rows := make([]map[string]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		rows = append(rows, map[string]string{
			"Issue ID":       issue.ID,
			"Severity":       string(issue.Type),
			"Title":          issue.Title,
			"Description":    issue.Description,
			"Recommendation": issue.Recommendation,
		})
	}
	return export.Dataset{
		Headers: []string{"Issue ID", "Severity", "Title", "Description", "Recommendation"},
		Rows:    rows,
	}
}

func buildProgressDataset(doc *models.VersionJSONData) export.Dataset {
	progress := CalculateProgress(doc)
	statRow := func(metric string, stat models.ProgressStat) map[string]string {
		return map[string]string{
			"Metric":      metric,
			"Done":        fmt.Sprintf("%d", stat.Count),
			"Total":       fmt.Sprintf("%d", stat.Total),
			"Percent (%)": fmt.Sprintf("%d", stat.Percentage),
		}
	}
	rows := []map[string]string{
		statRow("Blocks built", progress.BlocksBuilt),
		statRow("Lessons scheduled", progress.LessonsScheduled),
		statRow("Lessons staffed", progress.LessonsStaffed),
		{"Metric": "Overall", "Done": "", "Total": "", "Percent (%)": fmt.Sprintf("%d", progress.Overall)},
	}
	return export.Dataset{
		Headers: []string{"Metric", "Done", "Total", "Percent (%)"},
		Rows:    rows,
	}
}

func buildSummaryDataset(doc *models.VersionJSONData, params models.ExportJobParams) export.Dataset {
	result := RunValidationSync(doc, params.OrganizationID, params.ProjectID, params.VersionID)
	progress := CalculateProgress(doc)
	rows := []map[string]string{
		{"Metric": "Errors", "Value": fmt.Sprintf("%d", result.ErrorCount)},
		{"Metric": "Warnings", "Value": fmt.Sprintf("%d", result.WarningCount)},
		{"Metric": "Info", "Value": fmt.Sprintf("%d", result.InfoCount)},
		{"Metric": "Blocks built (%)", "Value": fmt.Sprintf("%d", progress.BlocksBuilt.Percentage)},
		{"Metric": "Lessons scheduled (%)", "Value": fmt.Sprintf("%d", progress.LessonsScheduled.Percentage)},
		{"Metric": "Lessons staffed (%)", "Value": fmt.Sprintf("%d", progress.LessonsStaffed.Percentage)},
		{"Metric": "Overall readiness (%)", "Value": fmt.Sprintf("%d", progress.Overall)},
	}
	return export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
}
