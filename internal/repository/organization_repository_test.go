package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestOrganizationRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrganizationRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at"}).
		AddRow("org-1", "Northgate School", "northgate", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT o.id, o.name, o.slug, o.created_at, o.updated_at")).
		WithArgs("%north%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(o.id)")).
		WithArgs("%north%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	orgs, total, err := repo.List(context.Background(), models.OrganizationFilter{Search: "North"})
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "northgate", orgs[0].Slug)
}

func TestOrganizationRepositoryExistsBySlug(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrganizationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM organizations WHERE slug = $1")).
		WithArgs("northgate").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsBySlug(context.Background(), "northgate", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM organizations WHERE slug = $1 AND id <> $2")).
		WithArgs("northgate", "org-1").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsBySlug(context.Background(), "northgate", "org-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOrganizationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrganizationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO organizations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	org := &models.Organization{Name: "Northgate School", Slug: "northgate"}
	require.NoError(t, repo.Create(context.Background(), org))
	assert.NotEmpty(t, org.ID)
	assert.False(t, org.CreatedAt.IsZero())
}

func TestOrganizationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrganizationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM organizations WHERE id = $1")).
		WithArgs("org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "org-1"))
}
