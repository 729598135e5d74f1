// Package telegram is a minimal Bot API client covering what the alert
// publisher needs: Markdown messages into channels, with per-chat pacing
// and rate-limit surfacing.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/retry"
)

const defaultBaseURL = "https://api.telegram.org"

// Config holds Bot API client settings.
type Config struct {
	Token          string        `yaml:"token"`
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MinInterval spaces out sends to the same chat. Telegram throttles
	// around one message per second per chat.
	MinInterval time.Duration `yaml:"min_interval"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MinInterval == 0 {
		c.MinInterval = 2 * time.Second
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Bot sends messages through the Telegram Bot API.
type Bot struct {
	cfg        Config
	httpClient *http.Client

	mu       sync.Mutex
	lastSend map[string]time.Time
}

// New builds a Bot. The token is required; everything else has defaults.
func New(cfg Config) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	cfg.applyDefaults()
	return &Bot{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		lastSend:   make(map[string]time.Time),
	}, nil
}

// SendMessage posts Markdown text to a chat or channel. Link previews are
// disabled so pair URLs do not bloat the digest. Sends to the same chat
// closer together than MinInterval block until the interval has passed.
func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	if strings.TrimSpace(chatID) == "" {
		return fmt.Errorf("telegram: chat id is required")
	}
	if err := b.pace(ctx, chatID); err != nil {
		return err
	}

	payload := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", b.cfg.BaseURL, b.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		// Never echo the URL, it embeds the bot token.
		return fmt.Errorf("telegram: sendMessage failed: %w", redactToken(err, b.cfg.Token))
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("telegram: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if api.OK {
		log.Debug().Str("chat", chatID).Int("chars", len(text)).Msg("telegram message sent")
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || api.ErrorCode == http.StatusTooManyRequests {
		return &retry.RateLimitError{
			Provider:   "telegram",
			RetryAfter: time.Duration(api.Parameters.RetryAfter) * time.Second,
		}
	}
	return fmt.Errorf("telegram: API error %d: %s", api.ErrorCode, api.Description)
}

// pace sleeps until MinInterval has elapsed since the last send to chatID.
func (b *Bot) pace(ctx context.Context, chatID string) error {
	b.mu.Lock()
	now := time.Now()
	wait := b.cfg.MinInterval - now.Sub(b.lastSend[chatID])
	if wait < 0 {
		wait = 0
	}
	b.lastSend[chatID] = now.Add(wait)
	b.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func redactToken(err error, token string) error {
	if err == nil || token == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), token, "<token>")
	return fmt.Errorf("%s", msg)
}
