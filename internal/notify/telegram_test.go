package notify

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBot struct {
	sent []telego.SendMessageParams
	err  error
}

func (m *mockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	m.sent = append(m.sent, *params)
	if m.err != nil {
		return nil, m.err
	}
	return &telego.Message{MessageID: len(m.sent)}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestTelegramNotifier_NotifyResult(t *testing.T) {
	bot := &mockBot{}
	n := NewTelegramNotifierWithBot(bot, 42, testLogger(t))

	tk := task.Task{ID: task.NewID(), Title: "Morning digest", Provider: task.ProviderGemini}
	entry := task.NewHistoryEntry(time.Now(), "all quiet", task.StatusSuccess)

	n.NotifyResult(context.Background(), tk, entry)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID.ID)
	assert.Contains(t, bot.sent[0].Text, "Morning digest")
	assert.Contains(t, bot.sent[0].Text, "all quiet")
	assert.Contains(t, bot.sent[0].Text, "gemini")
}

func TestTelegramNotifier_FailureMarker(t *testing.T) {
	bot := &mockBot{}
	n := NewTelegramNotifierWithBot(bot, 42, testLogger(t))

	tk := task.Task{ID: task.NewID(), Title: "t", Provider: task.ProviderGrok}
	entry := task.NewHistoryEntry(time.Now(), "missing API key for provider grok", task.StatusFailed)

	n.NotifyResult(context.Background(), tk, entry)

	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0].Text, "❌")
}

func TestTelegramNotifier_SendErrorIsSwallowed(t *testing.T) {
	bot := &mockBot{err: assert.AnError}
	n := NewTelegramNotifierWithBot(bot, 42, testLogger(t))

	tk := task.Task{ID: task.NewID(), Title: "t", Provider: task.ProviderDeepseek}
	n.NotifyResult(context.Background(), tk, task.NewHistoryEntry(time.Now(), "r", task.StatusSuccess))

	assert.Len(t, bot.sent, 1, "no panic, no retry")
}

func TestTelegramNotifier_TruncatesLongResults(t *testing.T) {
	bot := &mockBot{}
	n := NewTelegramNotifierWithBot(bot, 42, testLogger(t))

	tk := task.Task{ID: task.NewID(), Title: "t", Provider: task.ProviderGemini}
	long := strings.Repeat("x", 5000)
	n.NotifyResult(context.Background(), tk, task.NewHistoryEntry(time.Now(), long, task.StatusSuccess))

	require.Len(t, bot.sent, 1)
	assert.Less(t, len(bot.sent[0].Text), 4096)
}

func TestTelegramNotifier_TruncatesOnRuneBoundary(t *testing.T) {
	bot := &mockBot{}
	n := NewTelegramNotifierWithBot(bot, 42, testLogger(t))

	tk := task.Task{ID: task.NewID(), Title: "t", Provider: task.ProviderGemini}
	long := strings.Repeat("é", 5000)
	n.NotifyResult(context.Background(), tk, task.NewHistoryEntry(time.Now(), long, task.StatusSuccess))

	require.Len(t, bot.sent, 1)
	text := bot.sent[0].Text
	assert.True(t, utf8.ValidString(text), "truncation must not split a rune")
	assert.Less(t, utf8.RuneCountInString(text), 4096)
	assert.True(t, strings.HasSuffix(text, "…"))
}
