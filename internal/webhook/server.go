// Package webhook exposes the HTTP surface: a TradingView alert receiver
// that relays into Telegram, a health probe, and Prometheus metrics.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/telemetry"
)

// Notifier relays a webhook alert into a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Config holds webhook server settings.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	// ChatID receives relayed TradingView alerts.
	ChatID string `yaml:"chat_id"`
	// Secret, when set, must match the X-Webhook-Secret header.
	Secret string `yaml:"secret"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
}

// tradingViewAlert is the JSON TradingView posts. Every field is optional;
// missing ones fall back to placeholders in the relayed message.
type tradingViewAlert struct {
	Alert     string `json:"alert"`
	Symbol    string `json:"symbol"`
	Price     any    `json:"price"`
	Direction string `json:"direction"`
}

// Server is the webhook HTTP server.
type Server struct {
	cfg      Config
	notifier Notifier
	router   *mux.Router
	http     *http.Server
}

// NewServer builds the server and its routes.
func NewServer(cfg Config, notifier Notifier) *Server {
	cfg.applyDefaults()
	s := &Server{cfg: cfg, notifier: notifier, router: mux.NewRouter()}

	s.router.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.cfg.ListenAddr).Msg("webhook server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Secret != "" && r.Header.Get("X-Webhook-Secret") != s.cfg.Secret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "unauthorized"})
		return
	}

	var alert tradingViewAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid json"})
		return
	}

	msg := formatAlert(alert)
	if err := s.notifier.SendMessage(r.Context(), s.cfg.ChatID, msg); err != nil {
		log.Error().Err(err).Str("symbol", alert.Symbol).Msg("webhook relay failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"status": "relay failed"})
		return
	}

	log.Info().Str("symbol", alert.Symbol).Str("direction", alert.Direction).Msg("webhook alert relayed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func formatAlert(a tradingViewAlert) string {
	alert := a.Alert
	if alert == "" {
		alert = "🚨 Alert!"
	}
	symbol := a.Symbol
	if symbol == "" {
		symbol = "Unknown Symbol"
	}
	price := "Unknown Price"
	if a.Price != nil {
		price = fmt.Sprintf("%v", a.Price)
	}
	direction := a.Direction
	if direction == "" {
		direction = "Unknown Direction"
	}
	return alert + "\n\n🔹Symbol: " + symbol + "\n🔹Price: " + price + "\n🔹Direction: " + direction
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
