package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"dota-tracker/internal/database"
	"dota-tracker/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB brings up a migrated in-memory database. The pool is pinned to
// a single connection because each sqlite ":memory:" connection is its own
// database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, zerolog.Nop()))
	return db
}

func storedMatch(matchID int64, players []int64, win bool, solo *bool, endedAt *time.Time) domain.Match {
	return domain.Match{
		MatchID:   matchID,
		PlayerIDs: players,
		Win:       win,
		Solo:      solo,
		EndedAt:   endedAt,
		Duration:  1800,
		Mode:      22,
	}
}

func TestMatchRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewMatchRepository(db, zerolog.Nop())
	ctx := context.Background()

	solo := true
	end := time.Date(2026, time.March, 14, 11, 0, 0, 0, time.UTC)
	in := storedMatch(1001, []int64{101, 102}, true, &solo, &end)

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Match{in}))

	out, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, int64(1001), got.MatchID)
	assert.Equal(t, []int64{101, 102}, got.PlayerIDs)
	assert.True(t, got.Win)
	require.NotNil(t, got.Solo)
	assert.True(t, *got.Solo)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(end))
	assert.Equal(t, 1800, got.Duration)
	assert.Equal(t, 22, got.Mode)
}

func TestMatchRepositoryNullableFields(t *testing.T) {
	db := openTestDB(t)
	repo := NewMatchRepository(db, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Match{
		storedMatch(1002, []int64{101}, false, nil, nil),
	}))

	out, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Solo)
	assert.Nil(t, out[0].EndedAt)
}

func TestMatchRepositoryUpsertReplacesRecord(t *testing.T) {
	db := openTestDB(t)
	repo := NewMatchRepository(db, zerolog.Nop())
	ctx := context.Background()

	end := time.Date(2026, time.March, 14, 11, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertBatch(ctx, []domain.Match{
		storedMatch(1003, []int64{101}, true, nil, &end),
	}))

	// same match re-observed with a second participant and resolved status
	solo := false
	require.NoError(t, repo.UpsertBatch(ctx, []domain.Match{
		storedMatch(1003, []int64{101, 102}, true, &solo, &end),
	}))

	out, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int64{101, 102}, out[0].PlayerIDs)
	require.NotNil(t, out[0].Solo)
	assert.False(t, *out[0].Solo)
}

func TestMatchRepositoryParticipantOrderPreserved(t *testing.T) {
	db := openTestDB(t)
	repo := NewMatchRepository(db, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Match{
		storedMatch(1004, []int64{300, 100, 200}, true, nil, nil),
	}))

	out, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int64{300, 100, 200}, out[0].PlayerIDs)
}

func TestMatchRepositorySince(t *testing.T) {
	db := openTestDB(t)
	repo := NewMatchRepository(db, zerolog.Nop())
	ctx := context.Background()

	old := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Match{
		storedMatch(1, []int64{101}, true, nil, &old),
		storedMatch(2, []int64{101}, false, nil, &recent),
		storedMatch(3, []int64{101}, true, nil, nil), // undated, never returned
	}))

	out, err := repo.Since(ctx, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].MatchID)
}

func TestMatchRepositoryEmptyStore(t *testing.T) {
	db := openTestDB(t)
	repo := NewMatchRepository(db, zerolog.Nop())

	out, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, repo.UpsertBatch(context.Background(), nil))
}
