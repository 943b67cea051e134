package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type versionRepoStub struct {
	versions  map[string]*models.Version
	latest    *models.Version
	nextNum   int
	created   []*models.Version
	createErr error
	deleteErr error
}

func newVersionRepoStub() *versionRepoStub {
	return &versionRepoStub{versions: map[string]*models.Version{}, nextNum: 1}
}

func (s *versionRepoStub) Create(ctx context.Context, version *models.Version) error {
	if s.createErr != nil {
		return s.createErr
	}
	version.Number = s.nextNum
	s.nextNum++
	s.versions[version.ID] = version
	s.created = append(s.created, version)
	return nil
}

func (s *versionRepoStub) FindByID(ctx context.Context, id string) (*models.Version, error) {
	if version, ok := s.versions[id]; ok {
		return version, nil
	}
	return nil, sql.ErrNoRows
}

func (s *versionRepoStub) FindLatest(ctx context.Context, projectID string) (*models.Version, error) {
	return s.latest, nil
}

func (s *versionRepoStub) ListByProject(ctx context.Context, projectID string) ([]models.Version, error) {
	out := make([]models.Version, 0, len(s.versions))
	for _, version := range s.versions {
		out = append(out, *version)
	}
	return out, nil
}

func (s *versionRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if _, ok := s.versions[id]; !ok {
		return false, nil
	}
	delete(s.versions, id)
	return true, nil
}

type blobStoreStub struct {
	blobs   map[string][]byte
	saveErr error
	loadErr error
	deleted []string
}

func newBlobStoreStub() *blobStoreStub {
	return &blobStoreStub{blobs: map[string][]byte{}}
}

func (s *blobStoreStub) Save(key string, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.blobs[key] = data
	return key, nil
}

func (s *blobStoreStub) Load(key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s missing", key)
	}
	return data, nil
}

func (s *blobStoreStub) Delete(key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.blobs, key)
	return nil
}

func TestVersionServiceCreateStoresBlobAndRow(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	doc := cleanDocument()
	resp, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Label: "initial", Document: doc}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Number)
	assert.Equal(t, "initial", resp.Label)
	assert.Equal(t, "prj-1", resp.ProjectID)
	assert.NotEmpty(t, resp.ID)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.Equal(t, fmt.Sprintf("projects/prj-1/%s.json", stored.ID), stored.BlobKey)
	assert.Contains(t, blobs.blobs, stored.BlobKey)
}

func TestVersionServiceCreateRejectsMissingDocument(t *testing.T) {
	svc := NewVersionService(newVersionRepoStub(), newBlobStoreStub(), nil, nil)

	_, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Label: "empty"}, "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestVersionServiceCreateCleansBlobOnInsertFailure(t *testing.T) {
	repo := newVersionRepoStub()
	repo.createErr = errors.New("insert boom")
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	_, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Document: cleanDocument()}, "user-1")
	require.Error(t, err)
	assert.Empty(t, blobs.blobs)
	assert.Len(t, blobs.deleted, 1)
}

func TestVersionServiceGetRoundTripsDocument(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	created, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Label: "v1", Document: cleanDocument()}, "user-1")
	require.NoError(t, err)

	fetched, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Document)
	assert.Equal(t, cleanDocument(), fetched.Document)
}

func TestVersionServiceGetNotFound(t *testing.T) {
	svc := NewVersionService(newVersionRepoStub(), newBlobStoreStub(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestVersionServiceRenameBandCreatesNewVersion(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	created, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Label: "v1", Document: cleanDocument()}, "user-1")
	require.NoError(t, err)

	renamed, err := svc.RenameBand(context.Background(), created.ID, "7X", dto.RenameBandRequest{NewName: "7Y"}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, renamed.Number)
	assert.NotEqual(t, created.ID, renamed.ID)
	assert.Equal(t, "rename band 7X to 7Y", renamed.Label)

	// The original snapshot is untouched.
	original, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, cleanDocument(), original.Document)

	found := false
	for _, band := range renamed.Document.Data.Bands {
		if band.ID == "7Y" {
			found = true
			assert.Equal(t, "7Y", band.Name)
		}
		assert.NotEqual(t, "7X", band.ID)
	}
	assert.True(t, found)
}

func TestVersionServiceRenameBandPropagatesEditError(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	created, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Document: cleanDocument()}, "user-1")
	require.NoError(t, err)

	_, err = svc.RenameBand(context.Background(), created.ID, "band-missing", dto.RenameBandRequest{NewName: "7Y"}, "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Len(t, repo.created, 1)
}

func TestVersionServiceAddBandCreatesNewVersion(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	created, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Label: "v1", Document: cleanDocument()}, "user-1")
	require.NoError(t, err)

	added, err := svc.AddBand(context.Background(), created.ID, dto.AddBandRequest{YearGroupID: "7"}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, added.Number)
	assert.Equal(t, "add band to year group 7", added.Label)
	require.Len(t, added.Document.Data.Bands, 2)
	assert.Equal(t, "7Y", added.Document.Data.Bands[1].ID)
	require.Len(t, added.Document.Data.FormGroups, 4)

	// The original snapshot is untouched.
	original, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, cleanDocument(), original.Document)
}

func TestVersionServiceAddBandRequiresYearGroup(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	_, err := svc.AddBand(context.Background(), "ver-1", dto.AddBandRequest{}, "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestVersionServiceDeleteRemovesBlob(t *testing.T) {
	repo := newVersionRepoStub()
	blobs := newBlobStoreStub()
	svc := NewVersionService(repo, blobs, nil, nil)

	created, err := svc.Create(context.Background(), "prj-1", dto.CreateVersionRequest{Document: cleanDocument()}, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, blobs.blobs)

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
}

func TestVersionServiceLatestEmptyProject(t *testing.T) {
	svc := NewVersionService(newVersionRepoStub(), newBlobStoreStub(), nil, nil)

	_, err := svc.Latest(context.Background(), "prj-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
