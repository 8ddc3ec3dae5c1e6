package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/arabot/internal/database"
	"github.com/example/arabot/internal/leaderboard"
	"github.com/example/arabot/internal/scoring"
	"github.com/example/arabot/pkg/models"
)

// Bot dispatches inbound Telegram updates: activity messages in tracked
// chats flow through the scoring engine, commands go to the admin surface.
type Bot struct {
	api    *tgbotapi.BotAPI
	client *Client
	cfg    *database.ConfigRepository
	users  *database.UserRepository
	board  *leaderboard.Service
	logger *slog.Logger
	loc    *time.Location
	selfID int64

	// settings is the read-mostly cached copy of the runtime settings,
	// swapped wholesale after a reconfigure rather than mutated in place.
	settings atomic.Pointer[models.Settings]
}

// New creates the bot around an authorized API client. Services that depend
// on the bot's messenger are wired afterwards with Attach.
func New(api *tgbotapi.BotAPI, client *Client, cfg *database.ConfigRepository, logger *slog.Logger, loc *time.Location) *Bot {
	if loc == nil {
		loc = time.UTC
	}
	b := &Bot{
		api:    api,
		client: client,
		cfg:    cfg,
		logger: logger,
		loc:    loc,
		selfID: api.Self.ID,
	}
	b.settings.Store(&models.Settings{})
	return b
}

// Attach wires the user repository and leaderboard service.
func (b *Bot) Attach(users *database.UserRepository, board *leaderboard.Service) {
	b.users = users
	b.board = board
}

// Excluded reports whether an author's activity is not tracked: the bot
// itself and the two configured admins.
func (b *Bot) Excluded(userID int64) bool {
	if userID == b.selfID {
		return true
	}
	return b.settings.Load().IsAdmin(userID)
}

// Settings returns the cached runtime settings.
func (b *Bot) Settings() models.Settings {
	return *b.settings.Load()
}

// ReloadSettings re-reads the settings document, heals it, and swaps the
// cached copy.
func (b *Bot) ReloadSettings(ctx context.Context) (models.Settings, error) {
	settings, err := b.cfg.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	b.settings.Store(&settings)
	b.client.SetLogChat(settings.LogChannelID)
	return settings, nil
}

// Start runs the long-polling update loop until the context is canceled.
// Every update is handled in its own goroutine behind a recover boundary,
// so a failing handler drops that one event and nothing else.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.ReloadSettings(ctx); err != nil {
		return fmt.Errorf("failed to load settings on startup: %w", err)
	}
	b.logger.Info("authorized", "account", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate is the top-level handler boundary.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", "panic", r)
		}
	}()

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if msg.From.ID == b.selfID {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleTrackedMessage(ctx, msg)
}

// roleFor maps a chat id to its configured tracked-channel role.
func roleFor(s models.Settings, chatID int64) scoring.Role {
	switch chatID {
	case 0:
		return scoring.RoleNone
	case s.FrancoChannelID:
		return scoring.RoleFrancoWriting
	case s.ArabicChannelID:
		return scoring.RoleArabicWriting
	case s.SpeakingChannelID:
		return scoring.RoleSpeaking
	case s.DictationChannelID:
		return scoring.RoleDictation
	case s.WorksheetChannelID:
		return scoring.RoleWorksheet
	default:
		return scoring.RoleNone
	}
}

// messageFrom extracts the parts of a Telegram message the scoring engine
// looks at. Captions count as text so a photographed worksheet page with a
// long caption is not thrown away.
func messageFrom(msg *tgbotapi.Message) scoring.Message {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	m := scoring.Message{
		Text:     text,
		HasImage: len(msg.Photo) > 0,
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		m.HasImage = true
	}
	if msg.Voice != nil {
		m.VoiceSeconds = msg.Voice.Duration
	}
	return m
}

// handleTrackedMessage runs one activity event through the pipeline:
// repository load, scoring decision, repository mutation, republish.
func (b *Bot) handleTrackedMessage(ctx context.Context, msg *tgbotapi.Message) {
	settings := b.Settings()
	role := roleFor(settings, msg.Chat.ID)
	if role == scoring.RoleNone {
		return
	}

	rec, err := b.users.LoadOrCreate(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotTracked) {
			return
		}
		b.logger.Error("failed to load user record", "user", msg.From.ID, "error", err)
		return
	}

	mutation, audit := scoring.Evaluate(role, messageFrom(msg), *rec, time.Now().In(b.loc))
	for _, line := range audit {
		b.client.Audit(ctx, fmt.Sprintf("%s: %s", userLabel(msg.From), line))
	}

	if !mutation.IsZero() {
		if err := b.users.ApplyMutation(ctx, msg.From.ID, mutation); err != nil {
			b.logger.Error("failed to apply scoring mutation", "user", msg.From.ID, "error", err)
			return
		}
	}
	if mutation.Republish {
		if err := b.board.Publish(ctx); err != nil {
			b.logger.Error("failed to republish leaderboard", "error", err)
		}
	}
}

// userLabel formats a user for audit messages.
func userLabel(u *tgbotapi.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if u.UserName != "" {
		if name != "" {
			return fmt.Sprintf("%s (@%s)", name, u.UserName)
		}
		return "@" + u.UserName
	}
	if name == "" {
		return strconv.FormatInt(u.ID, 10)
	}
	return fmt.Sprintf("%s (%d)", name, u.ID)
}
