package bybit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/jobs"
	"github.com/eurotax/satoshi-bot/internal/retry"
)

// Notifier delivers one alert message to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// MonitorConfig drives the pump/dump alert job.
type MonitorConfig struct {
	Symbols []string `yaml:"symbols"`
	// AlertPercent is the absolute 24h move that triggers an alert.
	AlertPercent float64       `yaml:"alert_percent"`
	ChatID       string        `yaml:"chat_id"`
	Interval     time.Duration `yaml:"interval"`
	FirstDelay   time.Duration `yaml:"first_delay"`
}

func (c *MonitorConfig) applyDefaults() {
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	}
	if c.AlertPercent == 0 {
		c.AlertPercent = 5.0
	}
	if c.Interval == 0 {
		c.Interval = 5 * time.Minute
	}
	if c.FirstDelay == 0 {
		c.FirstDelay = time.Minute
	}
}

// FormatAlert renders one pump/dump message.
func FormatAlert(symbol string, lastPrice, changePct float64) string {
	direction := "📈 Pump"
	if changePct < 0 {
		direction = "📉 Dump"
	}
	return fmt.Sprintf("%s on %s\nPrice: %g\n24h Change: %.2f%%", direction, symbol, lastPrice, changePct)
}

// Monitor polls configured symbols and alerts on outsized 24h moves.
type Monitor struct {
	client   *Client
	notifier Notifier
	cfg      MonitorConfig
	policy   retry.Policy
}

func NewMonitor(client *Client, notifier Notifier, cfg MonitorConfig, policy retry.Policy) *Monitor {
	cfg.applyDefaults()
	return &Monitor{client: client, notifier: notifier, cfg: cfg, policy: policy}
}

// Run checks every symbol once. A failing symbol is logged and skipped so
// one bad ticker never silences the rest of the list.
func (m *Monitor) Run(ctx context.Context) {
	for _, symbol := range m.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}
		ticker, err := retry.DoValue(ctx, m.policy, "bybit_ticker", func(ctx context.Context) (*Ticker, error) {
			return m.client.FetchTicker(ctx, symbol)
		})
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("ticker fetch failed")
			continue
		}

		change := ticker.ChangePct()
		if math.Abs(change) < m.cfg.AlertPercent {
			continue
		}

		msg := FormatAlert(symbol, ticker.LastPrice(), change)
		if err := m.notifier.SendMessage(ctx, m.cfg.ChatID, msg); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("alert send failed")
			continue
		}
		log.Info().Str("symbol", symbol).Float64("change_pct", change).Msg("pump/dump alert sent")
	}
}

// Schedule registers the repeating alert job on the registry.
func (m *Monitor) Schedule(reg *jobs.Registry, runner jobs.Runner) error {
	cb := func(ctx context.Context, data any) { m.Run(ctx) }
	_, err := reg.Register(runner, cb, m.cfg.Interval, m.cfg.FirstDelay, nil, "bybit_alerts")
	if err != nil {
		return fmt.Errorf("schedule bybit_alerts: %w", err)
	}
	return nil
}
