// Package bybit fetches derivative tickers from the Bybit v5 market API
// and raises pump/dump alerts on large 24h moves.
package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eurotax/satoshi-bot/internal/numeric"
)

const defaultBaseURL = "https://api.bybit.com"

// ErrNoTicker means the API answered but had no data for the symbol.
var ErrNoTicker = errors.New("bybit: no ticker data")

// Ticker is one entry from /v5/market/tickers. Numeric fields arrive as
// strings; they stay loose and go through numeric coercion like the
// DexScreener payloads do.
type Ticker struct {
	Symbol       string `json:"symbol"`
	LastPriceRaw any    `json:"lastPrice"`
	Pcnt24hRaw   any    `json:"price24hPcnt"`
	Volume24hRaw any    `json:"volume24h"`
	HighPrice24h any    `json:"highPrice24h"`
	LowPrice24h  any    `json:"lowPrice24h"`
}

// LastPrice returns the last trade price, 0 when unparseable.
func (t *Ticker) LastPrice() float64 {
	return numeric.ToFloat(t.LastPriceRaw, 0)
}

// ChangePct returns the 24h move as a percentage. Bybit ships the raw
// ratio ("0.05" for +5%), so it is scaled by 100 here.
func (t *Ticker) ChangePct() float64 {
	return numeric.ToFloat(t.Pcnt24hRaw, 0) * 100
}

type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []Ticker `json:"list"`
	} `json:"result"`
}

// Config holds Bybit client settings.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
}

// Client is a thin read-only Bybit v5 market client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.RequestTimeout}}
}

// FetchTicker returns the linear-category ticker for symbol.
func (c *Client) FetchTicker(ctx context.Context, symbol string) (*Ticker, error) {
	q := url.Values{}
	q.Set("category", "linear")
	q.Set("symbol", symbol)
	endpoint := c.cfg.BaseURL + "/v5/market/tickers?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("bybit: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bybit: fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bybit: fetch %s: HTTP %d", symbol, resp.StatusCode)
	}

	var body tickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("bybit: decode %s: %w", symbol, err)
	}
	if body.RetCode != 0 {
		return nil, fmt.Errorf("bybit: fetch %s: API error %d: %s", symbol, body.RetCode, body.RetMsg)
	}
	if len(body.Result.List) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoTicker, symbol)
	}
	return &body.Result.List[0], nil
}
