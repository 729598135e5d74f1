package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "-1002726810570", cfg.VIPChannelID)
	assert.Equal(t, "@SatoshiSignalLab", cfg.PublicChannelID)
	assert.Equal(t, 15*time.Minute, cfg.VIPInterval)
	assert.Equal(t, 8*time.Hour, cfg.PublicInterval)
	assert.InDelta(t, 10000, cfg.Filter.MinVolumeUSD, 1e-9)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vip_channel_id: "-100111"
vip_interval: 5m
filter:
  min_volume_usd: 25000
aggregator:
  chain: solana
  query_terms: [SOL, BONK]
redis_addr: "localhost:6379"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "-100111", cfg.VIPChannelID)
	assert.Equal(t, 5*time.Minute, cfg.VIPInterval)
	assert.InDelta(t, 25000, cfg.Filter.MinVolumeUSD, 1e-9)
	assert.Equal(t, []string{"SOL", "BONK"}, cfg.Aggregator.QueryTerms)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	// Untouched fields keep their defaults.
	assert.Equal(t, "@SatoshiSignalLab", cfg.PublicChannelID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vip_channel_id: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("VIP_CHANNEL_ID", "-100env")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "-100env", cfg.VIPChannelID)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
}

func TestWebhookChatFallsBackToPublicChannel(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg.PublicChannelID, cfg.Webhook.ChatID)
}

func TestBybitChatFallsBackToVIPChannel(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg.VIPChannelID, cfg.BybitMonitor.ChatID)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "token required")

	cfg.Telegram.Token = "t"
	assert.NoError(t, cfg.Validate())

	cfg.VIPChannelID = ""
	cfg.PublicChannelID = ""
	assert.Error(t, cfg.Validate())
}
