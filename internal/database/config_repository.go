package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/arabot/pkg/models"
)

// settingsDocID is the id of the singleton settings document.
const settingsDocID = "settings"

// ConfigRepository is the only component allowed to read or write the
// runtime settings document. Loads fail soft: a missing document is created
// from defaults, and partially missing keys are healed with a merge write
// that leaves existing keys untouched.
type ConfigRepository struct {
	store Store
}

// NewConfigRepository creates a new repository instance
func NewConfigRepository(store Store) *ConfigRepository {
	return &ConfigRepository{store: store}
}

// Load returns the settings record with every key present.
func (r *ConfigRepository) Load(ctx context.Context) (models.Settings, error) {
	fields, err := r.store.Get(ctx, ConfigCollection, settingsDocID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
		}
		defaults := models.DefaultSettingsFields()
		if err := r.store.Set(ctx, ConfigCollection, settingsDocID, defaults, false); err != nil {
			return models.Settings{}, fmt.Errorf("failed to create default settings: %w", err)
		}
		settings, _ := models.SettingsFromFields(defaults)
		return settings, nil
	}

	settings, missing := models.SettingsFromFields(fields)
	if len(missing) > 0 {
		patch := make(map[string]interface{}, len(missing))
		defaults := models.DefaultSettingsFields()
		for _, key := range missing {
			patch[key] = defaults[key]
		}
		if err := r.store.Set(ctx, ConfigCollection, settingsDocID, patch, true); err != nil {
			return models.Settings{}, fmt.Errorf("failed to heal settings keys: %w", err)
		}
	}
	return settings, nil
}

// Raw returns the stored settings document as-is, for the /cfg command.
func (r *ConfigRepository) Raw(ctx context.Context) (map[string]interface{}, error) {
	return r.store.Get(ctx, ConfigCollection, settingsDocID)
}

// SetServer records the home group chat id.
func (r *ConfigRepository) SetServer(ctx context.Context, chatID int64) error {
	fields := map[string]interface{}{models.FieldServerID: chatID}
	return r.store.Set(ctx, ConfigCollection, settingsDocID, fields, true)
}

// Configure merge-writes the given settings keys. Only keys present in the
// map are touched.
func (r *ConfigRepository) Configure(ctx context.Context, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("no settings to update")
	}
	return r.store.Set(ctx, ConfigCollection, settingsDocID, fields, true)
}

// SetLeaderboardMessage persists the handle of the published leaderboard
// message so later publishes can edit it in place.
func (r *ConfigRepository) SetLeaderboardMessage(ctx context.Context, messageID int) error {
	fields := map[string]interface{}{models.FieldLeaderboardMessageID: messageID}
	return r.store.Set(ctx, ConfigCollection, settingsDocID, fields, true)
}
