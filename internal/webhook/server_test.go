package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	chatIDs []string
	texts   []string
	err     error
}

func (n *recordingNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	if n.err != nil {
		return n.err
	}
	n.chatIDs = append(n.chatIDs, chatID)
	n.texts = append(n.texts, text)
	return nil
}

func post(t *testing.T, s *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookRelaysAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewServer(Config{ChatID: "-100chan"}, notifier)

	rec := post(t, s, `{"alert":"🚨 Breakout","symbol":"SOLUSDT","price":141.5,"direction":"long"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "success")

	require.Len(t, notifier.texts, 1)
	assert.Equal(t, "-100chan", notifier.chatIDs[0])
	assert.Contains(t, notifier.texts[0], "🚨 Breakout")
	assert.Contains(t, notifier.texts[0], "🔹Symbol: SOLUSDT")
	assert.Contains(t, notifier.texts[0], "141.5")
	assert.Contains(t, notifier.texts[0], "🔹Direction: long")
}

func TestWebhookDefaultsMissingFields(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewServer(Config{ChatID: "c"}, notifier)

	rec := post(t, s, `{}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notifier.texts, 1)
	assert.Contains(t, notifier.texts[0], "🚨 Alert!")
	assert.Contains(t, notifier.texts[0], "Unknown Symbol")
	assert.Contains(t, notifier.texts[0], "Unknown Price")
	assert.Contains(t, notifier.texts[0], "Unknown Direction")
}

func TestWebhookRejectsBadJSON(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewServer(Config{ChatID: "c"}, notifier)

	rec := post(t, s, `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, notifier.texts)
}

func TestWebhookSecret(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewServer(Config{ChatID: "c", Secret: "hunter2"}, notifier)

	rec := post(t, s, `{"symbol":"BTCUSDT"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, notifier.texts)

	rec = post(t, s, `{"symbol":"BTCUSDT"}`, map[string]string{"X-Webhook-Secret": "hunter2"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, notifier.texts, 1)
}

func TestWebhookRelayFailure(t *testing.T) {
	s := NewServer(Config{ChatID: "c"}, &recordingNotifier{err: errors.New("telegram down")})

	rec := post(t, s, `{"symbol":"BTCUSDT"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	s := NewServer(Config{ChatID: "c"}, &recordingNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := NewServer(Config{ChatID: "c"}, &recordingNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(Config{ChatID: "c"}, &recordingNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
