package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/arabot/internal/excel"
	"github.com/example/arabot/pkg/models"
)

// configureKeys maps /configure argument names to settings document fields.
var configureKeys = map[string]string{
	"franco":      models.FieldFrancoChannelID,
	"arabic":      models.FieldArabicChannelID,
	"speaking":    models.FieldSpeakingChannelID,
	"dictation":   models.FieldDictationChannelID,
	"worksheet":   models.FieldWorksheetChannelID,
	"leaderboard": models.FieldLeaderboardChannelID,
	"weekly":      models.FieldWeeklyLeaderboardID,
	"log":         models.FieldLogChannelID,
	"admin1":      models.FieldAdmin1,
	"admin2":      models.FieldAdmin2,
}

// dateAliases maps /resetdate argument names to user document fields.
var dateAliases = map[string]string{
	"writing":   models.FieldLastWritingDate,
	"speaking":  models.FieldLastSpeakingDate,
	"worksheet": models.FieldLastWorksheetDate,
	"week":      models.FieldFirstWorksheetDate,
}

// handleCommand dispatches the administrative command surface. Every
// command is admin gated; unexpected failures are reported generically and
// logged with detail, never leaked to the chat.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		b.reply(msg, "This command is only available for administrators.")
		return
	}

	var err error
	switch msg.Command() {
	case "help", "start":
		err = b.handleHelp(msg)
	case "setserver":
		err = b.handleSetServer(ctx, msg)
	case "cfg":
		err = b.handleShowConfig(ctx, msg)
	case "configure":
		err = b.handleConfigure(ctx, msg)
	case "leaderboard":
		err = b.handleForceLeaderboard(ctx, msg)
	case "addpoints":
		err = b.handleAddPoints(ctx, msg, 1)
	case "removepoints":
		err = b.handleAddPoints(ctx, msg, -1)
	case "setstreak":
		err = b.handleSetStreak(ctx, msg)
	case "resetdate":
		err = b.handleResetDate(ctx, msg)
	case "export":
		err = b.handleExport(ctx, msg)
	default:
		b.reply(msg, "Unknown command. Use /help to list the available commands.")
		return
	}
	if err != nil {
		b.logger.Error("command failed", "command", msg.Command(), "error", err)
		b.reply(msg, "❌ Something went wrong, check the logs.")
	}
}

// isAdmin allows the configured admins everywhere, and chat creators or
// administrators within their own group. Before the first /configure the
// chat-admin path is the only way in, which is how the deployment gets
// bootstrapped.
func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	if b.Settings().IsAdmin(msg.From.ID) {
		return true
	}
	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		return b.client.IsChatAdmin(msg.Chat.ID, msg.From.ID)
	}
	return false
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	if _, err := b.client.Send(msg.Chat.ID, text); err != nil {
		b.logger.Error("failed to send reply", "chat", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "Community activity bot commands (admin only):\n\n" +
		"/setserver - run inside the home group to register it\n" +
		"/cfg - print the stored settings document\n" +
		"/configure key=<chat or user id> ... - set channels and admins\n" +
		"  keys: franco arabic speaking dictation worksheet leaderboard weekly log admin1 admin2\n" +
		"/leaderboard - force a leaderboard republish\n" +
		"/addpoints <user id> <points> - add points (or reply to a user)\n" +
		"/removepoints <user id> <points> - remove points\n" +
		"/setstreak <user id> <streak> - overwrite a worksheet streak\n" +
		"/resetdate <user id> <writing|speaking|worksheet|week> - reset a tracked date\n" +
		"/export - export the leaderboard as a spreadsheet"
	b.reply(msg, text)
	return nil
}

func (b *Bot) handleSetServer(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		b.reply(msg, "Run /setserver inside the group you want to register.")
		return nil
	}
	if err := b.cfg.SetServer(ctx, msg.Chat.ID); err != nil {
		return fmt.Errorf("failed to set server: %w", err)
	}
	if _, err := b.ReloadSettings(ctx); err != nil {
		return err
	}
	b.reply(msg, fmt.Sprintf("✅ Server has been set to %s.", msg.Chat.Title))
	b.client.Audit(ctx, fmt.Sprintf("Server set to %q (%d) by %s", msg.Chat.Title, msg.Chat.ID, userLabel(msg.From)))
	return nil
}

func (b *Bot) handleShowConfig(ctx context.Context, msg *tgbotapi.Message) error {
	raw, err := b.cfg.Raw(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Current settings:\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %v\n", k, raw[k])
	}
	b.reply(msg, sb.String())
	return nil
}

func (b *Bot) handleConfigure(ctx context.Context, msg *tgbotapi.Message) error {
	if _, ok := b.Settings().Guild(); !ok {
		b.reply(msg, "Please register the group first with /setserver.")
		return nil
	}

	fields := make(map[string]interface{})
	for _, arg := range strings.Fields(msg.CommandArguments()) {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			b.reply(msg, fmt.Sprintf("Bad argument %q, expected key=value.", arg))
			return nil
		}
		field, ok := configureKeys[strings.ToLower(key)]
		if !ok {
			b.reply(msg, fmt.Sprintf("Unknown setting %q.", key))
			return nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			b.reply(msg, fmt.Sprintf("Bad id %q for %s.", value, key))
			return nil
		}
		fields[field] = id
	}
	if len(fields) == 0 {
		b.reply(msg, "Nothing to configure. Use key=value pairs, see /help.")
		return nil
	}

	if err := b.cfg.Configure(ctx, fields); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if _, err := b.ReloadSettings(ctx); err != nil {
		return err
	}
	b.reply(msg, "Config updated successfully.")
	b.client.Audit(ctx, fmt.Sprintf("Server settings updated by %s", userLabel(msg.From)))
	return nil
}

func (b *Bot) handleForceLeaderboard(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.board.Publish(ctx); err != nil {
		return fmt.Errorf("failed to publish leaderboard: %w", err)
	}
	b.reply(msg, "Leaderboard updated.")
	return nil
}

func (b *Bot) handleAddPoints(ctx context.Context, msg *tgbotapi.Message, sign int) error {
	userID, args, ok := b.targetUser(msg)
	if !ok || len(args) != 1 {
		b.reply(msg, "Usage: reply to a user or pass their id, followed by a point count.")
		return nil
	}
	points, err := strconv.Atoi(args[0])
	if err != nil || points <= 0 {
		b.reply(msg, "Points must be a positive number.")
		return nil
	}

	if err := b.users.AddPoints(ctx, userID, sign*points); err != nil {
		return err
	}
	verb := "added to"
	if sign < 0 {
		verb = "removed from"
	}
	b.reply(msg, fmt.Sprintf("%d points %s user %d.", points, verb, userID))
	b.client.Audit(ctx, fmt.Sprintf("%d points %s user %d by %s", points, verb, userID, userLabel(msg.From)))
	if err := b.board.Publish(ctx); err != nil {
		b.logger.Error("failed to republish leaderboard", "error", err)
	}
	return nil
}

func (b *Bot) handleSetStreak(ctx context.Context, msg *tgbotapi.Message) error {
	userID, args, ok := b.targetUser(msg)
	if !ok || len(args) != 1 {
		b.reply(msg, "Usage: reply to a user or pass their id, followed by the streak value.")
		return nil
	}
	streak, err := strconv.Atoi(args[0])
	if err != nil || streak < 0 {
		b.reply(msg, "Streak must be a non-negative number.")
		return nil
	}

	if err := b.users.SetStreak(ctx, userID, streak); err != nil {
		return err
	}
	b.reply(msg, fmt.Sprintf("Streak for user %d set to %d.", userID, streak))
	b.client.Audit(ctx, fmt.Sprintf("Streak for user %d set to %d by %s", userID, streak, userLabel(msg.From)))
	if err := b.board.Publish(ctx); err != nil {
		b.logger.Error("failed to republish leaderboard", "error", err)
	}
	return nil
}

func (b *Bot) handleResetDate(ctx context.Context, msg *tgbotapi.Message) error {
	userID, args, ok := b.targetUser(msg)
	if !ok || len(args) != 1 {
		b.reply(msg, "Usage: reply to a user or pass their id, followed by one of: writing, speaking, worksheet, week.")
		return nil
	}
	field, ok := dateAliases[strings.ToLower(args[0])]
	if !ok {
		b.reply(msg, "Unknown date, use one of: writing, speaking, worksheet, week.")
		return nil
	}

	if err := b.users.ResetDate(ctx, userID, field); err != nil {
		return err
	}
	b.reply(msg, fmt.Sprintf("%s was reset for user %d.", field, userID))
	b.client.Audit(ctx, fmt.Sprintf("%s was reset for user %d by %s", field, userID, userLabel(msg.From)))
	return nil
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	entries, err := b.board.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to build leaderboard for export: %w", err)
	}
	now := time.Now().In(b.loc)
	data, err := excel.ExportLeaderboard(entries, now)
	if err != nil {
		return fmt.Errorf("failed to export leaderboard: %w", err)
	}
	filename := fmt.Sprintf("leaderboard-%s.xlsx", now.Format("2006-01-02"))
	if err := b.client.SendDocument(msg.Chat.ID, filename, data); err != nil {
		return err
	}
	b.client.Audit(ctx, fmt.Sprintf("Leaderboard exported by %s", userLabel(msg.From)))
	return nil
}

// targetUser resolves the subject of an admin command: the replied-to user
// when the command is a reply, otherwise the first argument parsed as an
// id. Remaining arguments are returned for the caller to interpret.
func (b *Bot) targetUser(msg *tgbotapi.Message) (int64, []string, bool) {
	args := strings.Fields(msg.CommandArguments())
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID, args, true
	}
	if len(args) == 0 {
		return 0, nil, false
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, nil, false
	}
	return userID, args[1:], true
}
