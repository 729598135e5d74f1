package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurotax/satoshi-bot/internal/retry"
)

func newTestBot(t *testing.T, handler http.HandlerFunc) *Bot {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bot, err := New(Config{
		Token:       "test-token",
		BaseURL:     srv.URL,
		MinInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return bot
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSendMessage(t *testing.T) {
	var got sendMessageRequest
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	})

	err := bot.SendMessage(context.Background(), "-100123", "💎 *VIP SIGNALS*")
	require.NoError(t, err)

	assert.Equal(t, "-100123", got.ChatID)
	assert.Equal(t, "💎 *VIP SIGNALS*", got.Text)
	assert.Equal(t, "Markdown", got.ParseMode)
	assert.True(t, got.DisableWebPagePreview)
}

func TestSendMessageRequiresChatID(t *testing.T) {
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	assert.Error(t, bot.SendMessage(context.Background(), "  ", "hi"))
}

func TestSendMessageAPIError(t *testing.T) {
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	err := bot.SendMessage(context.Background(), "bogus", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessageRateLimited(t *testing.T) {
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`))
	})

	err := bot.SendMessage(context.Background(), "-100123", "hi")
	require.Error(t, err)
	require.True(t, retry.IsRateLimit(err))

	var rl *retry.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
}

func TestSendMessagePacesPerChat(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	bot, err := New(Config{Token: "t", BaseURL: srv.URL, MinInterval: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, bot.SendMessage(context.Background(), "a", "1"))
	require.NoError(t, bot.SendMessage(context.Background(), "a", "2"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "second send to same chat waits")
	assert.Equal(t, 2, calls)

	// Different chat is not delayed by chat "a".
	start = time.Now()
	require.NoError(t, bot.SendMessage(context.Background(), "b", "3"))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestSendMessagePaceHonorsContext(t *testing.T) {
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	bot.cfg.MinInterval = time.Hour

	require.NoError(t, bot.SendMessage(context.Background(), "a", "1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bot.SendMessage(ctx, "a", "2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
