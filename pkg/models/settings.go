package models

// Settings document field names. The settings document is a singleton kept
// in the document store; every key is guaranteed present after a load
// because missing keys are healed from defaults.
const (
	FieldServerID             = "server_id"
	FieldAdmin1               = "admin1"
	FieldAdmin2               = "admin2"
	FieldFrancoChannelID      = "franco_channel_id"
	FieldArabicChannelID      = "arabic_channel_id"
	FieldSpeakingChannelID    = "speaking_channel_id"
	FieldDictationChannelID   = "dictation_channel_id"
	FieldWorksheetChannelID   = "worksheet_channel_id"
	FieldLeaderboardChannelID = "leaderboard_channel_id"
	FieldLeaderboardMessageID = "leaderboard_message_id"
	FieldWeeklyLeaderboardID  = "weekly_leaderboard_id"
	FieldLogChannelID         = "log_channel_id"
)

// Settings is the runtime configuration record for one deployment: the home
// group, the two admins and the tracked/output chat ids. A zero value means
// "not configured yet".
type Settings struct {
	ServerID             int64 `json:"server_id"`
	Admin1               int64 `json:"admin1"`
	Admin2               int64 `json:"admin2"`
	FrancoChannelID      int64 `json:"franco_channel_id"`
	ArabicChannelID      int64 `json:"arabic_channel_id"`
	SpeakingChannelID    int64 `json:"speaking_channel_id"`
	DictationChannelID   int64 `json:"dictation_channel_id"`
	WorksheetChannelID   int64 `json:"worksheet_channel_id"`
	LeaderboardChannelID int64 `json:"leaderboard_channel_id"`
	LeaderboardMessageID int   `json:"leaderboard_message_id"`
	WeeklyLeaderboardID  int64 `json:"weekly_leaderboard_id"`
	LogChannelID         int64 `json:"log_channel_id"`
}

// Guild returns the configured home group id, reporting false when unset.
func (s Settings) Guild() (int64, bool) {
	if s.ServerID == 0 {
		return 0, false
	}
	return s.ServerID, true
}

// IsAdmin reports whether the given user id is one of the configured admins.
func (s Settings) IsAdmin(userID int64) bool {
	return userID != 0 && (userID == s.Admin1 || userID == s.Admin2)
}

// DefaultSettingsFields returns the stored defaults for the settings
// document. Zero stands in for "unset".
func DefaultSettingsFields() map[string]interface{} {
	return map[string]interface{}{
		FieldServerID:             int64(0),
		FieldAdmin1:               int64(0),
		FieldAdmin2:               int64(0),
		FieldFrancoChannelID:      int64(0),
		FieldArabicChannelID:      int64(0),
		FieldSpeakingChannelID:    int64(0),
		FieldDictationChannelID:   int64(0),
		FieldWorksheetChannelID:   int64(0),
		FieldLeaderboardChannelID: int64(0),
		FieldLeaderboardMessageID: int64(0),
		FieldWeeklyLeaderboardID:  int64(0),
		FieldLogChannelID:         int64(0),
	}
}

// SettingsFromFields builds a Settings record from a raw stored document,
// reporting which keys were absent so the adapter can heal them.
func SettingsFromFields(fields map[string]interface{}) (Settings, []string) {
	var s Settings
	var missing []string

	read := func(key string, dst *int64) {
		v, ok := fields[key]
		if !ok {
			missing = append(missing, key)
			return
		}
		*dst = AsInt64(v)
	}

	read(FieldServerID, &s.ServerID)
	read(FieldAdmin1, &s.Admin1)
	read(FieldAdmin2, &s.Admin2)
	read(FieldFrancoChannelID, &s.FrancoChannelID)
	read(FieldArabicChannelID, &s.ArabicChannelID)
	read(FieldSpeakingChannelID, &s.SpeakingChannelID)
	read(FieldDictationChannelID, &s.DictationChannelID)
	read(FieldWorksheetChannelID, &s.WorksheetChannelID)
	read(FieldLeaderboardChannelID, &s.LeaderboardChannelID)
	read(FieldWeeklyLeaderboardID, &s.WeeklyLeaderboardID)
	read(FieldLogChannelID, &s.LogChannelID)

	if v, ok := fields[FieldLeaderboardMessageID]; ok {
		s.LeaderboardMessageID = AsInt(v)
	} else {
		missing = append(missing, FieldLeaderboardMessageID)
	}

	return s, missing
}
