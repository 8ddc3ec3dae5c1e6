package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/arabot/pkg/models"
)

func TestConfigLoadCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewConfigRepository(store)

	settings, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Settings{}, settings)

	_, ok := settings.Guild()
	assert.False(t, ok, "guild must read as unset")

	// The default document was persisted with every key present.
	fields, err := store.Get(ctx, ConfigCollection, "settings")
	require.NoError(t, err)
	for key := range models.DefaultSettingsFields() {
		assert.Contains(t, fields, key)
	}
}

func TestConfigLoadHealsOnlyMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewConfigRepository(store)

	// A partial document: the server is set, most keys are missing.
	require.NoError(t, store.Set(ctx, ConfigCollection, "settings", map[string]interface{}{
		models.FieldServerID: int64(-100200300),
		models.FieldAdmin1:   int64(11),
	}, false))

	settings, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-100200300), settings.ServerID)
	assert.Equal(t, int64(11), settings.Admin1)
	assert.Equal(t, int64(0), settings.FrancoChannelID)

	guild, ok := settings.Guild()
	assert.True(t, ok)
	assert.Equal(t, int64(-100200300), guild)

	// Existing keys were left untouched, missing keys were backfilled.
	fields, err := store.Get(ctx, ConfigCollection, "settings")
	require.NoError(t, err)
	assert.Equal(t, int64(-100200300), models.AsInt64(fields[models.FieldServerID]))
	assert.Contains(t, fields, models.FieldLogChannelID)
	assert.Contains(t, fields, models.FieldLeaderboardMessageID)
}

func TestConfigLoadCoercesLegacyStringIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewConfigRepository(store)

	require.NoError(t, store.Set(ctx, ConfigCollection, "settings", map[string]interface{}{
		models.FieldServerID: "12345",
		models.FieldAdmin1:   "67",
	}, false))

	settings, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), settings.ServerID)
	assert.Equal(t, int64(67), settings.Admin1)
}

func TestConfigureAndLeaderboardHandle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewConfigRepository(store)

	require.NoError(t, repo.SetServer(ctx, -42))
	require.NoError(t, repo.Configure(ctx, map[string]interface{}{
		models.FieldWorksheetChannelID: int64(-7),
		models.FieldAdmin2:             int64(13),
	}))
	require.NoError(t, repo.SetLeaderboardMessage(ctx, 555))

	settings, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), settings.ServerID)
	assert.Equal(t, int64(-7), settings.WorksheetChannelID)
	assert.Equal(t, int64(13), settings.Admin2)
	assert.Equal(t, 555, settings.LeaderboardMessageID)
	assert.True(t, settings.IsAdmin(13))
	assert.False(t, settings.IsAdmin(14))

	assert.Error(t, repo.Configure(ctx, nil), "empty configure must be rejected")
}
