package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
)

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Logf("close mock db: %v", closeErr)
		}
	})

	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mock
}

func sampleLead() domain.Lead {
	score := 82
	return domain.Lead{
		ID:             "lead-1",
		Company:        "Veem",
		Title:          "Veem raises $70M",
		URL:            "http://x/1",
		Description:    "Veem closed a Series C.",
		Source:         "Google News",
		Category:       "couchbase",
		Timestamp:      time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		RelevanceScore: &score,
		ValueTypes:     []domain.ValueType{domain.ValueFundingRound},
		ActionItems:    []string{"Reach out"},
		Embedding:      []float32{0.1, 0.2},
	}
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows(leadColumns)
}

func TestPostgresInsert(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec("INSERT INTO leads").
		WithArgs(
			"lead-1", "Veem", "Veem raises $70M", "http://x/1", "Veem closed a Series C.", "",
			"Google News", "couchbase", sqlmock.AnyArg(), sqlmock.AnyArg(), "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	stored, err := repo.Insert(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), stored.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertDuplicateURL(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec("INSERT INTO leads").WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Insert(context.Background(), sampleLead())
	require.ErrorIs(t, err, domain.ErrDuplicateURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByURL(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM leads WHERE url = \\$1 LIMIT 1").
		WithArgs("http://x/1").
		WillReturnRows(leadRows().AddRow(
			"lead-1", "Veem", "Veem raises $70M", "http://x/1", "desc", "", "Google News", "couchbase",
			created, int64(82), "fits", "{funding_round}", "{\"Reach out\"}", "", "{0.5,0.25}", created,
		))

	lead, err := repo.FindByURL(context.Background(), "http://x/1")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, 82, lead.Score())
	assert.Equal(t, []domain.ValueType{domain.ValueFundingRound}, lead.ValueTypes)
	assert.Equal(t, []string{"Reach out"}, lead.ActionItems)
	assert.Equal(t, []float32{0.5, 0.25}, lead.Embedding)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByURLNormalizesToUTC(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	berlin := time.FixedZone("CET", 3600)
	published := time.Date(2025, 2, 28, 9, 30, 0, 0, berlin)
	created := time.Date(2025, 3, 1, 13, 0, 0, 0, berlin)
	mock.ExpectQuery("SELECT .* FROM leads WHERE url = \\$1 LIMIT 1").
		WithArgs("http://x/1").
		WillReturnRows(leadRows().AddRow(
			"lead-1", "Veem", "Veem raises $70M", "http://x/1", "", "", "", "",
			published, nil, "", "{}", "{}", "", nil, created,
		))

	lead, err := repo.FindByURL(context.Background(), "http://x/1")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, time.UTC, lead.Timestamp.Location())
	assert.Equal(t, time.UTC, lead.CreatedAt.Location())
	assert.Equal(t, time.Date(2025, 2, 28, 8, 30, 0, 0, time.UTC), lead.Timestamp)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), lead.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByURLMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT .* FROM leads").WillReturnError(sql.ErrNoRows)

	lead, err := repo.FindByURL(context.Background(), "http://x/404")
	require.NoError(t, err)
	assert.Nil(t, lead)
}

func TestPostgresFindRecent(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM leads ORDER BY created_at DESC LIMIT 2").
		WillReturnRows(leadRows().
			AddRow("b", "Veem", "B", "http://x/2", "", "", "", "", now, nil, "", "{}", "{}", "", nil, now).
			AddRow("a", "Veem", "A", "http://x/1", "", "", "", "", now, int64(75), "", "{}", "{}", "", nil, now.Add(-time.Hour)))

	leads, err := repo.FindRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "b", leads[0].ID)
	assert.Nil(t, leads[0].RelevanceScore)
	assert.Equal(t, 75, leads[1].Score())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec("DELETE FROM leads WHERE id = \\$1").
		WithArgs("lead-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "lead-1"))

	mock.ExpectExec("DELETE FROM leads").WillReturnError(errors.New("conn reset"))
	require.Error(t, repo.Delete(context.Background(), "lead-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
