package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// VersionRepository manages the append-only version metadata rows. The
// document payload itself lives in blob storage; this table only tracks
// per-project numbering and blob keys.
type VersionRepository struct {
	db *sqlx.DB
}

// NewVersionRepository constructs a VersionRepository.
func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Create inserts the next version row for a project, assigning the
// sequential number inside a transaction so concurrent saves cannot race.
func (r *VersionRepository) Create(ctx context.Context, version *models.Version) (err error) {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin version transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Postgres rejects FOR UPDATE on aggregates, so serialise concurrent
	// saves by locking the parent project row instead.
	const lockQuery = `SELECT id FROM projects WHERE id = $1 FOR UPDATE`
	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, lockQuery, version.ProjectID); err != nil {
		return fmt.Errorf("lock project for version numbering: %w", err)
	}

	const nextQuery = `SELECT COALESCE(MAX(number), 0) + 1 FROM versions WHERE project_id = $1`
	if err = tx.GetContext(ctx, &version.Number, nextQuery, version.ProjectID); err != nil {
		return fmt.Errorf("next version number: %w", err)
	}

	const insertQuery = `INSERT INTO versions (id, project_id, number, label, blob_key, created_by, created_at)
VALUES (:id, :project_id, :number, :label, :blob_key, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, version); err != nil {
		return fmt.Errorf("create version: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit version: %w", err)
	}
	return nil
}

// FindByID fetches a version row by its identifier.
func (r *VersionRepository) FindByID(ctx context.Context, id string) (*models.Version, error) {
	const query = `SELECT id, project_id, number, label, blob_key, created_by, created_at FROM versions WHERE id = $1`
	var version models.Version
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// FindLatest returns the highest-numbered version of a project, or nil
// when the project has no versions yet.
func (r *VersionRepository) FindLatest(ctx context.Context, projectID string) (*models.Version, error) {
	const query = `SELECT id, project_id, number, label, blob_key, created_by, created_at
FROM versions WHERE project_id = $1 ORDER BY number DESC LIMIT 1`
	var version models.Version
	if err := r.db.GetContext(ctx, &version, query, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest version: %w", err)
	}
	return &version, nil
}

// ListByProject returns all version rows of a project, newest first.
func (r *VersionRepository) ListByProject(ctx context.Context, projectID string) ([]models.Version, error) {
	const query = `SELECT id, project_id, number, label, blob_key, created_by, created_at
FROM versions WHERE project_id = $1 ORDER BY number DESC`
	var versions []models.Version
	if err := r.db.SelectContext(ctx, &versions, query, projectID); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// Delete removes a version row and reports whether it existed.
func (r *VersionRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM versions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete version result: %w", err)
	}
	return affected > 0, nil
}
