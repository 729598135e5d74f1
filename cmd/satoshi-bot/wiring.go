package main

import (
	"github.com/eurotax/satoshi-bot/internal/config"
	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/signals"
	"github.com/eurotax/satoshi-bot/internal/telemetry"
)

// buildPipeline assembles the shared fetch-filter-rank stack. The caller
// must call dexscreener.Release when done with it.
func buildPipeline(cfg *config.Config, metrics *telemetry.Metrics) (*signals.Pipeline, error) {
	client, err := dexscreener.Acquire(cfg.DexScreener)
	if err != nil {
		return nil, err
	}

	aggregator := signals.NewTrendingAggregator(client, cfg.Aggregator, cfg.Retry)
	filter := signals.NewFilter(cfg.Filter)
	return signals.NewPipeline(aggregator, filter, metrics, cfg.Pipeline), nil
}
