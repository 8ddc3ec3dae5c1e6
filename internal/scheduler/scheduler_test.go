package scheduler

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/arabot/internal/database"
	"github.com/example/arabot/internal/leaderboard"
	"github.com/example/arabot/pkg/models"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeMessenger struct {
	sends  []sentMessage
	nextID int
}

func (f *fakeMessenger) Send(chatID int64, text string) (int, error) {
	f.nextID++
	f.sends = append(f.sends, sentMessage{ChatID: chatID, Text: text})
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(chatID int64, messageID int, text string) error { return nil }

func (f *fakeMessenger) DisplayName(userID string) string { return "User " + userID }

type fixture struct {
	sched     *Scheduler
	users     *database.UserRepository
	store     *database.MemoryStore
	messenger *fakeMessenger
	audit     *[]string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := database.NewMemoryStore()
	users := database.NewUserRepository(store, nil, nil)
	cfg := database.NewConfigRepository(store)
	messenger := &fakeMessenger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var auditLog []string
	audit := func(_ context.Context, msg string) { auditLog = append(auditLog, msg) }

	board := leaderboard.New(users, cfg, messenger, logger)
	sched := New(board, users, cfg, messenger, audit, logger, time.UTC)
	return fixture{sched: sched, users: users, store: store, messenger: messenger, audit: &auditLog}
}

func (f fixture) seedUser(t *testing.T, id string, points, streak int, lastWorksheet string) {
	t.Helper()
	fields := models.DefaultUserFields()
	fields[models.FieldPoints] = points
	fields[models.FieldStreak] = streak
	fields[models.FieldLastWorksheetDate] = lastWorksheet
	require.NoError(t, f.store.Set(context.Background(), database.UsersCollection, id, fields, false))
}

func (f fixture) configureWeekly(t *testing.T, chatID int64) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), database.ConfigCollection, "settings",
		map[string]interface{}{models.FieldWeeklyLeaderboardID: chatID}, true))
}

func TestRolloverPredicates(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		monthly bool
		weekly  bool
	}{
		{"first of month", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true, false},
		{"plain monday", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), false, true},
		{"monday the first", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), true, false},
		{"plain weekday", time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.monthly, ShouldRunMonthly(tt.date))
			assert.Equal(t, tt.weekly, ShouldRunWeekly(tt.date))
		})
	}
}

func TestDailySweepResetsExpiredStreaks(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	f.seedUser(t, "1", 100, 5, "2025-06-08") // 12 days ago, expires
	f.seedUser(t, "2", 100, 3, "2025-06-15") // 5 days ago, safe
	f.seedUser(t, "3", 100, 0, "2025-06-01") // expired but already zero

	require.NoError(t, f.sched.RunDailySweep(context.Background(), now))

	records, err := f.users.All(context.Background())
	require.NoError(t, err)
	streaks := map[string]int{}
	for _, rec := range records {
		streaks[rec.ID] = rec.Streak
	}
	assert.Equal(t, 0, streaks["1"])
	assert.Equal(t, 3, streaks["2"])
	assert.Equal(t, 0, streaks["3"])

	// Exactly one audit entry, for the one user actually reset.
	require.Len(t, *f.audit, 1)
	assert.Contains(t, (*f.audit)[0], "Reset streak for user 1")
}

func TestMonthlyRolloverSnapshotsBeforeReset(t *testing.T) {
	f := newFixture(t)
	f.configureWeekly(t, -900)
	f.seedUser(t, "1", 500, 2, models.DateSentinel)
	f.seedUser(t, "2", 120, 0, models.DateSentinel)

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.sched.RunMonthlyRollover(context.Background(), now))

	// Snapshot and announcement were posted with pre-reset standings.
	require.Len(t, f.messenger.sends, 2)
	assert.Contains(t, f.messenger.sends[0].Text, "🏆 July Leaderboard")
	assert.Contains(t, f.messenger.sends[0].Text, "500")
	assert.True(t, strings.Contains(f.messenger.sends[1].Text, "Congratulations"))
	assert.Contains(t, f.messenger.sends[1].Text, "User 1")

	// Every user's points are zero immediately after.
	records, err := f.users.All(context.Background())
	require.NoError(t, err)
	for _, rec := range records {
		assert.Equal(t, 0, rec.Points)
	}
}

func TestWeeklyRolloverDoesNotTouchPoints(t *testing.T) {
	f := newFixture(t)
	f.configureWeekly(t, -900)
	f.seedUser(t, "1", 321, 1, models.DateSentinel)

	now := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.sched.RunWeeklyRollover(context.Background(), now))

	require.Len(t, f.messenger.sends, 1)
	assert.Contains(t, f.messenger.sends[0].Text, "🏆 Weekly Leaderboard")
	assert.Contains(t, f.messenger.sends[0].Text, "321")

	rec, err := f.users.LoadOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 321, rec.Points)
}
