package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type versionRepository interface {
	Create(ctx context.Context, version *models.Version) error
	FindByID(ctx context.Context, id string) (*models.Version, error)
	FindLatest(ctx context.Context, projectID string) (*models.Version, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Version, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type blobStore interface {
	Save(key string, data []byte) (string, error)
	Load(key string) ([]byte, error)
	Delete(key string) error
}

// VersionService persists immutable document snapshots. Version rows live
// in Postgres; the JSON payload goes to blob storage. Structural edits
// never touch an existing snapshot: they load it, transform a copy and
// save the result as the next version.
type VersionService struct {
	repo      versionRepository
	blobs     blobStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVersionService constructs the version service.
func NewVersionService(repo versionRepository, blobs blobStore, validate *validator.Validate, logger *zap.Logger) *VersionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VersionService{repo: repo, blobs: blobs, validator: validate, logger: logger}
}

// Create stores the submitted document as the next version of the project.
func (s *VersionService) Create(ctx context.Context, projectID string, req dto.CreateVersionRequest, createdBy string) (*dto.VersionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid version payload")
	}
	return s.saveSnapshot(ctx, projectID, req.Document, req.Label, createdBy)
}

// Get returns version metadata together with its document payload.
func (s *VersionService) Get(ctx context.Context, id string) (*dto.VersionResponse, error) {
	version, err := s.findVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.loadBlob(version)
	if err != nil {
		return nil, err
	}
	resp := versionResponse(version)
	resp.Document = doc
	return resp, nil
}

// List returns the version history of a project, newest first.
func (s *VersionService) List(ctx context.Context, projectID string) ([]models.VersionSummary, error) {
	versions, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list versions")
	}
	summaries := make([]models.VersionSummary, 0, len(versions))
	for _, version := range versions {
		summaries = append(summaries, models.VersionSummary{
			ID:        version.ID,
			Number:    version.Number,
			Label:     version.Label,
			CreatedAt: version.CreatedAt,
		})
	}
	return summaries, nil
}

// Latest returns the newest version of a project with its document.
func (s *VersionService) Latest(ctx context.Context, projectID string) (*dto.VersionResponse, error) {
	version, err := s.repo.FindLatest(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest version")
	}
	if version == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "project has no versions")
	}
	doc, err := s.loadBlob(version)
	if err != nil {
		return nil, err
	}
	resp := versionResponse(version)
	resp.Document = doc
	return resp, nil
}

// Delete removes a version row and its stored blob.
func (s *VersionService) Delete(ctx context.Context, id string) error {
	version, err := s.findVersion(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete version")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "version not found")
	}
	if err := s.blobs.Delete(version.BlobKey); err != nil {
		// Row is already gone; a stale blob only wastes disk.
		s.logger.Warn("version blob delete failed", zap.String("key", version.BlobKey), zap.Error(err))
	}
	return nil
}

// LoadDocument fetches the document payload of a version.
func (s *VersionService) LoadDocument(ctx context.Context, id string) (*models.Version, *models.VersionJSONData, error) {
	version, err := s.findVersion(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.loadBlob(version)
	if err != nil {
		return nil, nil, err
	}
	return version, doc, nil
}

// AddBand appends a derived-name band to a year group and saves a new
// version.
func (s *VersionService) AddBand(ctx context.Context, versionID string, req dto.AddBandRequest, createdBy string) (*dto.VersionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add band payload")
	}
	return s.applyEdit(ctx, versionID, req.Label, createdBy, "add band to year group "+req.YearGroupID,
		func(doc *models.VersionJSONData) (*models.VersionJSONData, error) {
			edited, _, err := AddBand(doc, req.YearGroupID)
			return edited, err
		})
}

// RenameBand applies the band rename edit and saves the outcome as a new
// version.
func (s *VersionService) RenameBand(ctx context.Context, versionID, bandID string, req dto.RenameBandRequest, createdBy string) (*dto.VersionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	return s.applyEdit(ctx, versionID, req.Label, createdBy, fmt.Sprintf("rename band %s to %s", bandID, req.NewName),
		func(doc *models.VersionJSONData) (*models.VersionJSONData, error) {
			return RenameBand(doc, bandID, req.NewName)
		})
}

// DeleteBand removes a band with cascade and saves a new version.
func (s *VersionService) DeleteBand(ctx context.Context, versionID, bandID, label, createdBy string) (*dto.VersionResponse, error) {
	return s.applyEdit(ctx, versionID, label, createdBy, "delete band "+bandID,
		func(doc *models.VersionJSONData) (*models.VersionJSONData, error) {
			return DeleteBand(doc, bandID)
		})
}

// DeleteYearGroup removes a year group with cascade and saves a new version.
func (s *VersionService) DeleteYearGroup(ctx context.Context, versionID, yearGroupID, label, createdBy string) (*dto.VersionResponse, error) {
	return s.applyEdit(ctx, versionID, label, createdBy, "delete year group "+yearGroupID,
		func(doc *models.VersionJSONData) (*models.VersionJSONData, error) {
			return DeleteYearGroup(doc, yearGroupID)
		})
}

// DuplicateYearGroup copies a year group structure and saves a new version.
func (s *VersionService) DuplicateYearGroup(ctx context.Context, versionID, yearGroupID, label, createdBy string) (*dto.VersionResponse, error) {
	return s.applyEdit(ctx, versionID, label, createdBy, "duplicate year group "+yearGroupID,
		func(doc *models.VersionJSONData) (*models.VersionJSONData, error) {
			return DuplicateYearGroup(doc, yearGroupID)
		})
}

func (s *VersionService) applyEdit(ctx context.Context, versionID, label, createdBy, fallbackLabel string, edit func(*models.VersionJSONData) (*models.VersionJSONData, error)) (*dto.VersionResponse, error) {
	version, doc, err := s.LoadDocument(ctx, versionID)
	if err != nil {
		return nil, err
	}
	edited, err := edit(doc)
	if err != nil {
		return nil, err
	}
	if label == "" {
		label = fallbackLabel
	}
	return s.saveSnapshot(ctx, version.ProjectID, edited, label, createdBy)
}

func (s *VersionService) saveSnapshot(ctx context.Context, projectID string, doc *models.VersionJSONData, label, createdBy string) (*dto.VersionResponse, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode document")
	}

	version := &models.Version{ProjectID: projectID, Label: label, CreatedBy: createdBy}
	version.BlobKey = fmt.Sprintf("projects/%s/%s.json", projectID, versionBlobName(version))
	if _, err := s.blobs.Save(version.BlobKey, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	if err := s.repo.Create(ctx, version); err != nil {
		if cleanupErr := s.blobs.Delete(version.BlobKey); cleanupErr != nil {
			s.logger.Warn("orphan blob cleanup failed", zap.String("key", version.BlobKey), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create version")
	}

	resp := versionResponse(version)
	resp.Document = doc
	return resp, nil
}

func (s *VersionService) findVersion(ctx context.Context, id string) (*models.Version, error) {
	version, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version")
	}
	return version, nil
}

func (s *VersionService) loadBlob(version *models.Version) (*models.VersionJSONData, error) {
	raw, err := s.blobs.Load(version.BlobKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document")
	}
	var doc models.VersionJSONData
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode document")
	}
	return &doc, nil
}

func versionResponse(version *models.Version) *dto.VersionResponse {
	return &dto.VersionResponse{
		ID:        version.ID,
		ProjectID: version.ProjectID,
		Number:    version.Number,
		Label:     version.Label,
		CreatedBy: version.CreatedBy,
		CreatedAt: version.CreatedAt,
	}
}

func versionBlobName(version *models.Version) string {
	// Keys are derived from the row id so concurrent saves never collide.
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	return version.ID
}
