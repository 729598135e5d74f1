// Package config loads the bot configuration from an optional YAML file
// with environment-variable overrides on top. Secrets (the bot token,
// Redis address) come from the environment only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/eurotax/satoshi-bot/internal/bybit"
	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/jobs"
	"github.com/eurotax/satoshi-bot/internal/retry"
	"github.com/eurotax/satoshi-bot/internal/signals"
	"github.com/eurotax/satoshi-bot/internal/telegram"
	"github.com/eurotax/satoshi-bot/internal/webhook"
)

// Config is the full runtime configuration.
type Config struct {
	Telegram telegram.Config `yaml:"telegram"`

	// VIPChannelID receives the fast, small digests; PublicChannelID the
	// slow, large ones. Either a numeric chat ID or an @username.
	VIPChannelID    string `yaml:"vip_channel_id"`
	PublicChannelID string `yaml:"public_channel_id"`

	// Channel cadence. Zero values fall back to the stock tiers.
	VIPInterval    time.Duration `yaml:"vip_interval"`
	PublicInterval time.Duration `yaml:"public_interval"`

	DexScreener dexscreener.Config       `yaml:"dexscreener"`
	Retry       retry.Policy             `yaml:"retry"`
	Aggregator  signals.AggregatorConfig `yaml:"aggregator"`
	Filter      signals.FilterConfig     `yaml:"filter"`
	Pipeline    signals.PipelineConfig   `yaml:"pipeline"`
	Registry    jobs.RegistryConfig      `yaml:"registry"`

	Bybit        bybit.Config        `yaml:"bybit"`
	BybitMonitor bybit.MonitorConfig `yaml:"bybit_monitor"`

	Webhook webhook.Config `yaml:"webhook"`

	// RedisAddr enables the shared seen-pair store. Empty keeps it
	// in-process.
	RedisAddr string `yaml:"redis_addr"`
}

// Default returns the configuration the bot ships with.
func Default() *Config {
	return &Config{
		VIPChannelID:    "-1002726810570",
		PublicChannelID: "@SatoshiSignalLab",
		VIPInterval:     15 * time.Minute,
		PublicInterval:  8 * time.Hour,
		Filter:          signals.DefaultFilterConfig(),
		Retry:           retry.DefaultPolicy(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment variables. A .env file
// in the working directory is folded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Telegram.Token, "BOT_TOKEN")
	setString(&c.VIPChannelID, "VIP_CHANNEL_ID")
	setString(&c.PublicChannelID, "PUBLIC_CHANNEL_ID")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.Webhook.ListenAddr, "WEBHOOK_LISTEN_ADDR")
	setString(&c.Webhook.Secret, "WEBHOOK_SECRET")
	// The webhook relays into the public channel unless told otherwise.
	setString(&c.Webhook.ChatID, "CHANNEL_ID")
	if c.Webhook.ChatID == "" {
		c.Webhook.ChatID = c.PublicChannelID
	}
	if c.BybitMonitor.ChatID == "" {
		c.BybitMonitor.ChatID = c.VIPChannelID
	}
}

// Validate checks the settings a running bot cannot do without.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("config: BOT_TOKEN is required")
	}
	if c.VIPChannelID == "" && c.PublicChannelID == "" {
		return fmt.Errorf("config: at least one channel ID is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
