package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Telegram API with the small surface the rest of the
// system needs: send, in-place edit, display-name resolution and the audit
// log mirror.
type Client struct {
	api       *tgbotapi.BotAPI
	logger    *slog.Logger
	logChatID atomic.Int64
}

// NewClient creates a new client wrapping an authorized bot API.
func NewClient(api *tgbotapi.BotAPI, logger *slog.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// Send posts a message and returns its message id.
func (c *Client) Send(chatID int64, text string) (int, error) {
	sent, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// Edit rewrites an existing message in place. Editing a message whose
// content has not changed is reported as success, not failure, so an
// idempotent republish never falls back to a duplicate send.
func (c *Client) Edit(chatID int64, messageID int, text string) error {
	_, err := c.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	if err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// SendDocument sends an in-memory file to a chat.
func (c *Client) SendDocument(chatID int64, filename string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document to chat %d: %w", chatID, err)
	}
	return nil
}

// DisplayName resolves a user id to a human-readable name, or "" when the
// platform cannot resolve it.
func (c *Client) DisplayName(userID string) string {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return ""
	}
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: id},
	})
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(chat.FirstName) + " " + strings.TrimSpace(chat.LastName))
	if name == "" {
		name = chat.UserName
	}
	return name
}

// SetLogChat points the audit mirror at a chat; zero disables it.
func (c *Client) SetLogChat(chatID int64) {
	c.logChatID.Store(chatID)
}

// Audit writes an entry to the process log and mirrors it to the configured
// log chat. The mirror is best effort: an unset or unreachable log chat
// never fails the calling operation.
func (c *Client) Audit(ctx context.Context, msg string) {
	c.logger.Info(msg)
	chatID := c.logChatID.Load()
	if chatID == 0 {
		return
	}
	if _, err := c.Send(chatID, msg); err != nil {
		c.logger.Error("failed to mirror audit entry to log chat", "error", err)
	}
}

// IsChatAdmin reports whether the user is a creator or administrator of the
// given chat.
func (c *Client) IsChatAdmin(chatID, userID int64) bool {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return false
	}
	return member.Status == "creator" || member.Status == "administrator"
}
