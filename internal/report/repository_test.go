// AngelaMos | 2026
// repository_test.go

package report_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northstarhq/northstar/internal/report"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestRepositoryStatusCountsScopedToTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := report.NewRepository(db)

	tenant := "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs(tenant).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("active", 3).
			AddRow("done", 1))

	counts, err := repo.OKRStatusCounts(context.Background(), &tenant)
	require.NoError(t, err)
	assert.Equal(t, []report.StatusCount{
		{Status: "active", Count: 3},
		{Status: "done", Count: 1},
	}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryStatusCountsUnscoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := report.NewRepository(db)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("planned", 7))

	counts, err := repo.SprintStatusCounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []report.StatusCount{{Status: "planned", Count: 7}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAverageProgress(t *testing.T) {
	db, mock := newMockDB(t)
	repo := report.NewRepository(db)

	tenant := "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(tenant).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(62.5))

	avg, err := repo.AverageProgress(context.Background(), &tenant)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, avg, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTeamRollups(t *testing.T) {
	db, mock := newMockDB(t)
	repo := report.NewRepository(db)

	tenant := "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

	mock.ExpectQuery("FROM teams t").
		WithArgs(tenant).
		WillReturnRows(sqlmock.NewRows([]string{
			"team_id", "team_name", "okr_count", "done_count", "avg_progress",
		}).
			AddRow("team-1", "Growth", 4, 1, 48.0).
			AddRow("team-2", "Platform", 2, 2, 100.0))

	rollups, err := repo.TeamRollups(context.Background(), &tenant)
	require.NoError(t, err)
	require.Len(t, rollups, 2)
	assert.Equal(t, "Growth", rollups[0].TeamName)
	assert.Equal(t, 4, rollups[0].OKRCount)
	assert.InDelta(t, 100.0, rollups[1].AvgProgress, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
