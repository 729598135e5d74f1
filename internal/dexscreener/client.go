// Package dexscreener provides a pooled DexScreener API client.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/eurotax/satoshi-bot/internal/retry"
)

const providerName = "dexscreener"

// Config holds client construction parameters.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxConns       int           `yaml:"max_conns"`       // total connections to the host
	MaxIdleConns   int           `yaml:"max_idle_conns"`  // kept-alive connections
	RatePerMinute  int           `yaml:"rate_per_minute"` // client-side request budget
	UserAgent      string        `yaml:"user_agent"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.dexscreener.com"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.RatePerMinute == 0 {
		c.RatePerMinute = 60
	}
	if c.UserAgent == "" {
		c.UserAgent = "satoshi-bot/1.0 (+https://github.com/eurotax/satoshi-bot)"
	}
}

// Client talks to the DexScreener REST API. Connections are bounded by the
// transport; requests pass a client-side rate limiter and a circuit breaker
// before they reach the wire.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker

	mu     sync.Mutex
	closed bool
}

// New constructs a standalone client. Most callers want Acquire, which
// maintains the shared instance; New exists for dependency injection in
// tests and one-shot commands.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("dexscreener: invalid base URL %q: %w", cfg.BaseURL, err)
	}

	transport := &http.Transport{
		MaxConnsPerHost:     cfg.MaxConns,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    providerName,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout, Transport: transport},
		transport:  transport,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
		breaker:    breaker,
	}, nil
}

var (
	sharedMu sync.Mutex
	shared   *Client
)

// Acquire returns the shared client, constructing one when none exists or
// the previous one was closed. Construction failures propagate; there is no
// silent fallback.
func Acquire(cfg Config) (*Client, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil && !shared.isClosed() {
		return shared, nil
	}

	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	shared = c
	log.Debug().Str("base_url", c.baseURL).Msg("dexscreener client opened")
	return shared, nil
}

// Release closes the shared client if one is open. Safe to call repeatedly
// and during shutdown; the next Acquire re-opens.
func Release() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		shared.Close()
	}
}

// Close shuts the client's connection pool down. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.transport.CloseIdleConnections()
	log.Debug().Msg("dexscreener client closed")
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Search queries the free-text search endpoint and returns the raw pairs.
func (c *Client) Search(ctx context.Context, query string) ([]Pair, error) {
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))

	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return resp.Pairs, nil
}

// PairByAddress looks a single pair up by chain and pair address.
func (c *Client) PairByAddress(ctx context.Context, chain, address string) (*Pair, error) {
	u := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.baseURL, url.PathEscape(chain), url.PathEscape(address))

	var resp pairResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("pair %s/%s: %w", chain, address, err)
	}
	if resp.Pair != nil {
		return resp.Pair, nil
	}
	if len(resp.Pairs) > 0 {
		return &resp.Pairs[0], nil
	}
	return nil, fmt.Errorf("pair %s/%s: %w", chain, address, ErrNotFound)
}

// ErrNotFound marks a lookup with an empty upstream response.
var ErrNotFound = fmt.Errorf("pair not found")

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if c.isClosed() {
		return fmt.Errorf("client is closed")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doGet(ctx, u, out)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("%s unavailable: %w", providerName, err)
	}
	return err
}

func (c *Client) doGet(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return &retry.RateLimitError{
			Provider:   providerName,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, providerName)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
