package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type dashboardVersionSource interface {
	Latest(ctx context.Context, projectID string) (*dto.VersionResponse, error)
	List(ctx context.Context, projectID string) ([]models.VersionSummary, error)
	LoadDocument(ctx context.Context, id string) (*models.Version, *models.VersionJSONData, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	TopIssuesLimit int
}

// DashboardService composes the project overview payload: scheduling
// progress, the current issue picture and the version history. Results are
// cached per version; snapshots are immutable so entries never go stale.
type DashboardService struct {
	versions dashboardVersionSource
	cache    *CacheService
	logger   *zap.Logger
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(versions dashboardVersionSource, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopIssuesLimit <= 0 {
		cfg.TopIssuesLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{versions: versions, cache: cache, logger: logger, cfg: cfg}
}

// Project returns the dashboard for one project version and indicates
// cache utilisation. An empty versionID selects the latest version.
func (s *DashboardService) Project(ctx context.Context, orgID, projectID, versionID string) (*dto.ProjectDashboardResponse, bool, error) {
	if projectID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "projectId is required")
	}

	var doc *models.VersionJSONData
	if versionID == "" {
		latest, err := s.versions.Latest(ctx, projectID)
		if err != nil {
			return nil, false, err
		}
		versionID = latest.ID
		doc = latest.Document
	}

	cacheKey := fmt.Sprintf("dash:project:%s:%s", projectID, versionID)
	if summary, hit, err := s.tryCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return summary, true, nil
	}

	if doc == nil {
		version, loaded, err := s.versions.LoadDocument(ctx, versionID)
		if err != nil {
			return nil, false, err
		}
		if version.ProjectID != projectID {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		doc = loaded
	}

	summary, err := s.compose(ctx, orgID, projectID, versionID, doc)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, orgID, projectID, versionID string, doc *models.VersionJSONData) (*dto.ProjectDashboardResponse, error) {
	result := RunValidationSync(doc, orgID, projectID, versionID)
	history, err := s.versions.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &dto.ProjectDashboardResponse{
		ProjectID: projectID,
		VersionID: versionID,
		Progress:  CalculateProgress(doc),
		Issues: dto.DashboardIssuesSection{
			ErrorCount:   result.ErrorCount,
			WarningCount: result.WarningCount,
			InfoCount:    result.InfoCount,
			TopIssues:    topIssues(result.Issues, s.cfg.TopIssuesLimit),
		},
		Versions: history,
	}, nil
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*dto.ProjectDashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.ProjectDashboardResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// topIssues keeps the most severe issues first while preserving the rule
// engine's stable ordering within each severity.
func topIssues(issues []models.Issue, limit int) []models.Issue {
	top := make([]models.Issue, 0, limit)
	for _, severity := range []models.IssueType{models.IssueTypeError, models.IssueTypeWarning, models.IssueTypeInfo} {
		for _, issue := range issues {
			if issue.Type != severity {
				continue
			}
			top = append(top, issue)
			if len(top) == limit {
				return top
			}
		}
	}
	return top
}
