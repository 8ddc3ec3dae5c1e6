package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/arabot/internal/database"
	"github.com/example/arabot/internal/leaderboard"
	"github.com/example/arabot/internal/scoring"
)

// Announcer posts rollover announcements to the weekly leaderboard channel.
type Announcer interface {
	Send(chatID int64, text string) (int, error)
}

// Scheduler runs the calendar maintenance jobs off a single daily timer.
// The timer simply fires every day at midnight; date predicates decide
// which jobs actually run, so the skip logic stays testable on its own.
type Scheduler struct {
	scheduler *gocron.Scheduler
	board     *leaderboard.Service
	users     *database.UserRepository
	cfg       *database.ConfigRepository
	announcer Announcer
	audit     database.AuditFunc
	logger    *slog.Logger
	loc       *time.Location
}

// New creates a scheduler instance.
func New(board *leaderboard.Service, users *database.UserRepository, cfg *database.ConfigRepository,
	announcer Announcer, audit database.AuditFunc, logger *slog.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if audit == nil {
		audit = func(context.Context, string) {}
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		board:     board,
		users:     users,
		cfg:       cfg,
		announcer: announcer,
		audit:     audit,
		logger:    logger,
		loc:       loc,
	}
}

// Start begins running the daily maintenance tick in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Day().At("00:00").Do(s.runDaily)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ShouldRunMonthly reports whether the monthly rollover fires on this date.
func ShouldRunMonthly(t time.Time) bool {
	return t.Day() == 1
}

// ShouldRunWeekly reports whether the weekly rollover fires on this date.
// It never coincides with the monthly rollover: the first of the month wins.
func ShouldRunWeekly(t time.Time) bool {
	return t.Weekday() == time.Monday && t.Day() != 1
}

// runDaily is the single daily tick. Each job is guarded by its own date
// predicate and isolated so one failure cannot block the others.
func (s *Scheduler) runDaily() {
	ctx := context.Background()
	now := time.Now().In(s.loc)

	if ShouldRunMonthly(now) {
		if err := s.RunMonthlyRollover(ctx, now); err != nil {
			s.logger.Error("monthly rollover failed", "error", err)
		}
	}
	if ShouldRunWeekly(now) {
		if err := s.RunWeeklyRollover(ctx, now); err != nil {
			s.logger.Error("weekly rollover failed", "error", err)
		}
	}
	if err := s.RunDailySweep(ctx, now); err != nil {
		s.logger.Error("daily streak sweep failed", "error", err)
	}
}

// RunMonthlyRollover posts the month's final standings, congratulates the
// winner, and only then zeroes everyone's points. The snapshot must read
// points before the reset.
func (s *Scheduler) RunMonthlyRollover(ctx context.Context, now time.Time) error {
	title := fmt.Sprintf("🏆 %s Leaderboard", now.Month())
	entries, err := s.board.Snapshot(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to post monthly snapshot: %w", err)
	}

	if len(entries) > 0 {
		settings, err := s.cfg.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings for winner announcement: %w", err)
		}
		congrats := fmt.Sprintf("🎉 Congratulations %s! You won this month! Please open a ticket or message us to claim your prize.", entries[0].Name)
		if _, err := s.announcer.Send(settings.WeeklyLeaderboardID, congrats); err != nil {
			s.logger.Error("failed to announce monthly winner", "error", err)
		}
	}

	if err := s.users.ResetAllPoints(ctx); err != nil {
		return fmt.Errorf("failed to reset points: %w", err)
	}
	s.audit(ctx, fmt.Sprintf("Monthly leaderboard for %s sent, all points reset", now.Month()))
	return nil
}

// RunWeeklyRollover posts the weekly standings without touching points.
func (s *Scheduler) RunWeeklyRollover(ctx context.Context, now time.Time) error {
	if _, err := s.board.Snapshot(ctx, "🏆 Weekly Leaderboard"); err != nil {
		return fmt.Errorf("failed to post weekly snapshot: %w", err)
	}
	s.audit(ctx, "Weekly leaderboard sent")
	return nil
}

// RunDailySweep zeroes the streak of every user whose last qualifying
// worksheet fell out of the weekly window.
func (s *Scheduler) RunDailySweep(ctx context.Context, now time.Time) error {
	records, err := s.users.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for streak sweep: %w", err)
	}
	for _, rec := range records {
		if rec.Streak <= 0 || !scoring.MissedLastWeek(now, rec.LastWorksheetDate) {
			continue
		}
		userID, err := parseUserID(rec.ID)
		if err != nil {
			s.logger.Error("skipping user with malformed id", "id", rec.ID)
			continue
		}
		if err := s.users.SetStreak(ctx, userID, 0); err != nil {
			s.logger.Error("failed to reset streak", "user", rec.ID, "error", err)
			continue
		}
		s.audit(ctx, fmt.Sprintf("Reset streak for user %s, last worksheet was %s", rec.ID, rec.LastWorksheetDate))
	}
	return nil
}

func parseUserID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
