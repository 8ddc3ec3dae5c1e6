package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/arabot/internal/scoring"
	"github.com/example/arabot/pkg/models"
)

func TestLoadOrCreateFirstContact(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewUserRepository(store, nil, nil)

	rec, err := repo.LoadOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, 0, rec.Points)
	assert.Equal(t, 0, rec.Streak)
	assert.Equal(t, models.DateSentinel, rec.LastWritingDate)

	// The document was actually created.
	fields, err := store.Get(ctx, UsersCollection, "42")
	require.NoError(t, err)
	assert.Equal(t, 0, models.AsInt(fields[models.FieldPoints]))
}

func TestLoadOrCreateHealsMissingFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var auditLog []string
	audit := func(_ context.Context, msg string) { auditLog = append(auditLog, msg) }
	repo := NewUserRepository(store, audit, nil)

	// A document written by an older revision, missing the streak field.
	require.NoError(t, store.Set(ctx, UsersCollection, "7", map[string]interface{}{
		models.FieldPoints:          120,
		models.FieldLastWritingDate: "2025-06-01",
	}, false))

	rec, err := repo.LoadOrCreate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 120, rec.Points)
	assert.Equal(t, 0, rec.Streak)
	assert.Equal(t, "2025-06-01", rec.LastWritingDate)
	assert.Equal(t, models.DateSentinel, rec.LastWorksheetDate)

	// The store reflects the backfilled fields after the call returns.
	fields, err := store.Get(ctx, UsersCollection, "7")
	require.NoError(t, err)
	assert.Equal(t, 0, models.AsInt(fields[models.FieldStreak]))
	assert.Equal(t, models.DateSentinel, fields[models.FieldLastWorksheetDate])
	assert.Equal(t, 120, models.AsInt(fields[models.FieldPoints]))

	require.Len(t, auditLog, 1)
	assert.Contains(t, auditLog[0], "Healed")
}

func TestLoadOrCreateExcludesUntrackedAuthors(t *testing.T) {
	store := NewMemoryStore()
	repo := NewUserRepository(store, nil, func(id int64) bool { return id == 99 })

	_, err := repo.LoadOrCreate(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotTracked)

	// Nothing was written for the excluded author.
	_, err = store.Get(context.Background(), UsersCollection, "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyMutationUsesIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewUserRepository(store, nil, nil)

	_, err := repo.LoadOrCreate(ctx, 5)
	require.NoError(t, err)

	m := scoring.Mutation{
		PointsDelta: 10,
		SetDates:    map[string]string{models.FieldLastWritingDate: "2025-06-20"},
	}
	require.NoError(t, repo.ApplyMutation(ctx, 5, m))
	require.NoError(t, repo.ApplyMutation(ctx, 5, m))

	rec, err := repo.LoadOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 20, rec.Points, "two deltas must both land")
	assert.Equal(t, "2025-06-20", rec.LastWritingDate)
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewUserRepository(store, nil, nil)

	_, err := repo.LoadOrCreate(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, repo.AddPoints(ctx, 1, 50))
	require.NoError(t, repo.AddPoints(ctx, 1, -20))
	require.NoError(t, repo.SetStreak(ctx, 1, 3))
	require.NoError(t, repo.ResetDate(ctx, 1, models.FieldLastSpeakingDate))

	rec, err := repo.LoadOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, rec.Points)
	assert.Equal(t, 3, rec.Streak)
	assert.Equal(t, models.DateSentinel, rec.LastSpeakingDate)

	assert.Error(t, repo.ResetDate(ctx, 1, "points"), "only date fields can be reset")
}

func TestResetAllPoints(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewUserRepository(store, nil, nil)

	for _, id := range []int64{1, 2, 3} {
		_, err := repo.LoadOrCreate(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, repo.AddPoints(ctx, 1, 500))
	require.NoError(t, repo.SetStreak(ctx, 1, 4))

	require.NoError(t, repo.ResetAllPoints(ctx))

	records, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, 0, rec.Points)
	}
	// Streaks survive the monthly point reset.
	rec, err := repo.LoadOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Streak)
}
