package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Sender is the slice of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier announces published items to a Telegram chat.
type Notifier struct {
	bot    Sender
	chatID int64
	logger *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wraps an existing bot client.
func NewNotifier(bot Sender, chatID int64, logger *slog.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, logger: logger}
}

// Dial authenticates the bot token and returns a notifier for the configured chat.
func Dial(cfg config.TelegramConfig, logger *slog.Logger) (*Notifier, error) {
	chatID, ok := cfg.ChatIDInt()
	if cfg.BotToken == "" || !ok {
		return nil, fmt.Errorf("telegram notifier misconfigured")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewNotifier(bot, chatID, logger), nil
}

// AnnouncePublished posts a MarkdownV2 message for item.
func (n *Notifier) AnnouncePublished(_ context.Context, item domain.EnrichedItem) error {
	if n.bot == nil || n.chatID == 0 {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatAnnouncement(item))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	if n.logger != nil {
		n.logger.Debug("published item announced", "filtered_id", item.ID, "chat_id", n.chatID)
	}
	return nil
}

// FormatAnnouncement renders the bold title, the category line, the summary and the link.
func FormatAnnouncement(item domain.EnrichedItem) string {
	title := item.OriginalDetails.Title
	summary := ""
	category := item.Category
	if bit := item.EnrichedContent; bit != nil {
		if bit.Title != "" {
			title = bit.Title
		}
		summary = bit.Content
		category = bit.Category
		if bit.Subcategory != "" {
			category += " / " + bit.Subcategory
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*", EscapeMarkdown(title))
	if category != "" {
		fmt.Fprintf(&b, "\n_%s_", EscapeMarkdown(category))
	}
	if summary != "" {
		fmt.Fprintf(&b, "\n\n%s", EscapeMarkdown(summary))
	}
	if item.URL != "" {
		fmt.Fprintf(&b, "\n\n%s", EscapeMarkdown(item.URL))
	}
	return b.String()
}
