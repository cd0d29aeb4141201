// Package notify delivers task execution results to external channels.
// Currently only Telegram is supported, using the Telego library.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/mymmrac/telego"
)

const sendTimeout = 10 * time.Second

// maxResultChars caps the result text included in a notification,
// counted in runes. Telegram rejects messages over 4096 characters.
const maxResultChars = 3500

// BotInterface defines the Telegram bot API methods used by the
// notifier. It allows mock implementations in tests without depending
// on the concrete telego.Bot.
type BotInterface interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramNotifier sends task results to a fixed Telegram chat.
type TelegramNotifier struct {
	bot    BotInterface
	chatID int64
	logger *logger.Logger
}

// NewTelegramNotifier initializes the Telegram bot with the given token.
func NewTelegramNotifier(token string, chatID int64, log *logger.Logger) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: chatID, logger: log}, nil
}

// NewTelegramNotifierWithBot wires an existing bot, used in tests.
func NewTelegramNotifierWithBot(bot BotInterface, chatID int64, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: log}
}

// NotifyResult sends a message describing the outcome of one execution.
// Delivery is best effort: failures are logged and swallowed so they
// cannot affect the execution pipeline.
func (n *TelegramNotifier) NotifyResult(ctx context.Context, t task.Task, entry task.HistoryEntry) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: n.chatID},
		Text:   formatResult(t, entry),
	}

	if _, err := n.bot.SendMessage(sendCtx, params); err != nil {
		n.logger.ErrorCtx(ctx, "failed to send telegram notification", err,
			logger.Field{Key: "task_id", Value: t.ID},
			logger.Field{Key: "chat_id", Value: n.chatID})
		return
	}

	n.logger.DebugCtx(ctx, "sent telegram notification",
		logger.Field{Key: "task_id", Value: t.ID})
}

func formatResult(t task.Task, entry task.HistoryEntry) string {
	marker := "✅"
	if entry.Status == task.StatusFailed {
		marker = "❌"
	}

	result := entry.Result
	if runes := []rune(result); len(runes) > maxResultChars {
		result = string(runes[:maxResultChars]) + "…"
	}

	return fmt.Sprintf("%s %s (%s)\n%s\n\n%s",
		marker, t.Title, t.Provider,
		entry.Timestamp.Format(time.RFC3339),
		result)
}
