package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/arabot/internal/database"
)

// UnknownUser is shown when the platform cannot resolve a display name.
const UnknownUser = "Unknown User"

// Messenger is the slice of the chat platform the renderer needs.
type Messenger interface {
	Send(chatID int64, text string) (int, error)
	Edit(chatID int64, messageID int, text string) error
	DisplayName(userID string) string
}

// Entry is one ranked leaderboard row.
type Entry struct {
	ID     string
	Name   string
	Points int
	Streak int
}

// Service builds ranked snapshots of all users and publishes them. The main
// leaderboard is published idempotently by handle: the previously recorded
// message is edited in place, and only when that fails is a new message
// sent and its handle persisted.
type Service struct {
	users     *database.UserRepository
	cfg       *database.ConfigRepository
	messenger Messenger
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a leaderboard service.
func New(users *database.UserRepository, cfg *database.ConfigRepository, messenger Messenger, logger *slog.Logger) *Service {
	return &Service{
		users:     users,
		cfg:       cfg,
		messenger: messenger,
		logger:    logger,
		now:       time.Now,
	}
}

// Entries loads every user record and returns the rows ranked by points
// descending. The sort is stable, so ties keep their original order.
func (s *Service) Entries(ctx context.Context) ([]Entry, error) {
	records, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Points > records[j].Points
	})

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		name := s.messenger.DisplayName(rec.ID)
		if name == "" {
			name = UnknownUser
		}
		entries = append(entries, Entry{
			ID:     rec.ID,
			Name:   name,
			Points: rec.Points,
			Streak: rec.Streak,
		})
	}
	return entries, nil
}

// Format renders a titled, ranked leaderboard as message text. The
// timestamp line keeps consecutive publishes from being byte-identical.
func Format(title string, entries []Entry, at time.Time) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "#%d %s\nPoints: %d | Worksheet Streak: %d\n\n", i+1, e.Name, e.Points, e.Streak)
	}
	fmt.Fprintf(&b, "Updated: %s", at.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}

// Publish renders the main leaderboard into its configured channel. Calling
// it twice with no data change leaves exactly one live message: the second
// call edits rather than duplicates.
func (s *Service) Publish(ctx context.Context) error {
	settings, err := s.cfg.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings for leaderboard: %w", err)
	}
	if settings.LeaderboardChannelID == 0 {
		s.logger.Warn("leaderboard channel is not configured, skipping publish")
		return nil
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to build leaderboard: %w", err)
	}
	text := Format("🏆 Leaderboard", entries, s.now())

	if settings.LeaderboardMessageID != 0 {
		err := s.messenger.Edit(settings.LeaderboardChannelID, settings.LeaderboardMessageID, text)
		if err == nil {
			return nil
		}
		// The recorded message is gone or stale; fall back to a fresh send.
		s.logger.Info("leaderboard edit failed, sending a new message",
			"message_id", settings.LeaderboardMessageID, "error", err)
	}

	messageID, err := s.messenger.Send(settings.LeaderboardChannelID, text)
	if err != nil {
		return fmt.Errorf("failed to send leaderboard: %w", err)
	}
	if err := s.cfg.SetLeaderboardMessage(ctx, messageID); err != nil {
		return fmt.Errorf("failed to persist leaderboard message handle: %w", err)
	}
	return nil
}

// Snapshot posts a themed one-shot leaderboard to the weekly channel and
// returns the ranked entries, so rollover jobs can read the standings
// before any reset.
func (s *Service) Snapshot(ctx context.Context, title string) ([]Entry, error) {
	settings, err := s.cfg.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for snapshot: %w", err)
	}
	if settings.WeeklyLeaderboardID == 0 {
		return nil, fmt.Errorf("weekly leaderboard channel is not configured")
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	if _, err := s.messenger.Send(settings.WeeklyLeaderboardID, Format(title, entries, s.now())); err != nil {
		return nil, fmt.Errorf("failed to send snapshot: %w", err)
	}
	return entries, nil
}
