package bybit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurotax/satoshi-bot/internal/jobs"
	"github.com/eurotax/satoshi-bot/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 0, BaseDelay: time.Millisecond, RateLimitCooldown: time.Millisecond}
}

type recordingNotifier struct {
	texts []string
}

func (n *recordingNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

func tickerJSON(symbol, last, pcnt string) string {
	return fmt.Sprintf(`{"retCode":0,"retMsg":"OK","result":{"list":[{"symbol":%q,"lastPrice":%q,"price24hPcnt":%q}]}}`,
		symbol, last, pcnt)
}

func TestMonitorAlertsOnBigMoves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "BTCUSDT":
			w.Write([]byte(tickerJSON("BTCUSDT", "64000", "0.08"))) // +8%, pump
		case "ETHUSDT":
			w.Write([]byte(tickerJSON("ETHUSDT", "2500", "0.01"))) // +1%, quiet
		case "SOLUSDT":
			w.Write([]byte(tickerJSON("SOLUSDT", "140", "-0.06"))) // -6%, dump
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	m := NewMonitor(NewClient(Config{BaseURL: srv.URL}), notifier, MonitorConfig{ChatID: "-100vip"}, fastPolicy())

	m.Run(context.Background())

	require.Len(t, notifier.texts, 2)
	assert.Contains(t, notifier.texts[0], "📈 Pump on BTCUSDT")
	assert.Contains(t, notifier.texts[0], "8.00%")
	assert.Contains(t, notifier.texts[1], "📉 Dump on SOLUSDT")
	assert.Contains(t, notifier.texts[1], "-6.00%")
}

func TestMonitorSkipsFailedSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "BTCUSDT" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(tickerJSON("ETHUSDT", "2500", "0.09")))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	m := NewMonitor(NewClient(Config{BaseURL: srv.URL}), notifier,
		MonitorConfig{Symbols: []string{"BTCUSDT", "ETHUSDT"}, ChatID: "c"}, fastPolicy())

	m.Run(context.Background())

	require.Len(t, notifier.texts, 1, "bad symbol skipped, next one still checked")
	assert.Contains(t, notifier.texts[0], "ETHUSDT")
}

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert("BTCUSDT", 10000.0, 5.1234)
	assert.Contains(t, msg, "BTCUSDT")
	assert.Contains(t, msg, "5.12%")
	assert.Contains(t, msg, "📈 Pump")

	msg = FormatAlert("BTCUSDT", 10000.0, -5.1234)
	assert.Contains(t, msg, "📉 Dump")
}

func TestMonitorDefaults(t *testing.T) {
	cfg := MonitorConfig{}
	cfg.applyDefaults()
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cfg.Symbols)
	assert.InDelta(t, 5.0, cfg.AlertPercent, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
}

func TestMonitorSchedule(t *testing.T) {
	sched := jobs.NewScheduler()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sched.Shutdown(ctx)
	}()
	reg := jobs.NewRegistry(jobs.RegistryConfig{})

	m := NewMonitor(NewClient(Config{}), &recordingNotifier{}, MonitorConfig{ChatID: "c"}, fastPolicy())
	require.NoError(t, m.Schedule(reg, sched))
	assert.Equal(t, 1, reg.Stats().TotalJobs)

	assert.Error(t, m.Schedule(reg, sched), "duplicate job name rejected")
}
