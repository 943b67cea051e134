package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestSolverJobRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSolverJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO solver_jobs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.SolverJob{VersionID: "ver-1", Kind: models.SolverJobKindDiagnostics}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.SolverJobStatusPending, job.Status)
	assert.False(t, job.SubmittedAt.IsZero())
}

func TestSolverJobRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSolverJobRepository(db)

	status := models.SolverJobStatusCompleted
	result := types.JSONText(`{"score": 98}`)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE solver_jobs SET status = $1, result = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(status, result, sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateSolverJobParams{Status: &status, Result: &result})
	require.NoError(t, err)

	// No fields: no query issued.
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateSolverJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSolverJobRepositoryListUnfinished(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSolverJobRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "remote_id", "version_id", "kind", "status", "result", "submitted_at", "updated_at"}).
		AddRow("job-1", "remote-9", "ver-1", "solve", "RUNNING", []byte("{}"), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('PENDING', 'RUNNING')")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListUnfinished(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.SolverJobStatusRunning, jobs[0].Status)
}
