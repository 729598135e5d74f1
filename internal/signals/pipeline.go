package signals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/telemetry"
)

// PipelineConfig bounds one fetch-filter-rank run.
type PipelineConfig struct {
	// Oversample multiplies the caller's limit when fetching candidates so
	// enough survive filtering.
	Oversample int `yaml:"oversample"`
	// RunTimeout caps a whole run end to end. Per-request timeouts alone
	// leave the worst case at attempts × timeout × terms, which is too
	// long a tail for a scheduled job.
	RunTimeout time.Duration `yaml:"run_timeout"`
}

func (c *PipelineConfig) applyDefaults() {
	if c.Oversample == 0 {
		c.Oversample = 4
	}
	if c.RunTimeout == 0 {
		c.RunTimeout = 90 * time.Second
	}
}

// Fetcher is the aggregation stage seen by the pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, limit int) ([]dexscreener.Pair, FetchStats, error)
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Fetch    FetchStats
	Rejected map[RejectReason]int
	Accepted int
}

// Pipeline wires the aggregator, filter, and ranker into the public signal
// entry points. Each call re-fetches; there is no cached state.
type Pipeline struct {
	fetcher Fetcher
	filter  *Filter
	metrics *telemetry.Metrics
	cfg     PipelineConfig
}

// NewPipeline assembles a pipeline. metrics may be nil (tests).
func NewPipeline(fetcher Fetcher, filter *Filter, metrics *telemetry.Metrics, cfg PipelineConfig) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{fetcher: fetcher, filter: filter, metrics: metrics, cfg: cfg}
}

// TopSignals returns up to limit quality pairs, ranked by 24h volume.
// An empty slice with a nil error is a legitimate outcome (nothing met the
// quality bars); a non-nil error means the fetch layer gave us no data.
func (pl *Pipeline) TopSignals(ctx context.Context, limit int) ([]dexscreener.Pair, error) {
	ctx, cancel := context.WithTimeout(ctx, pl.cfg.RunTimeout)
	defer cancel()

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	start := time.Now()

	raw, fetchStats, err := pl.fetcher.Fetch(ctx, limit*pl.cfg.Oversample)
	if err != nil {
		pl.observeRun("error", start)
		logger.Error().Err(err).Msg("pipeline fetch failed")
		return nil, err
	}

	stats := RunStats{Fetch: fetchStats, Rejected: make(map[RejectReason]int)}
	accepted := make([]dexscreener.Pair, 0, limit)
	for i := range raw {
		decision := pl.filter.Evaluate(&raw[i])
		if decision.Accepted {
			stats.Accepted++
			accepted = append(accepted, raw[i])
			continue
		}
		stats.Rejected[decision.Reason]++
	}

	ranked := Rank(accepted)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := "ok"
	if len(ranked) == 0 {
		result = "empty"
	}
	pl.observeRun(result, start)
	pl.observePairs(stats)

	logger.Info().
		Int("fetched", stats.Fetch.Fetched).
		Int("malformed", stats.Fetch.Malformed).
		Int("deduped", stats.Fetch.Deduped).
		Int("accepted", stats.Accepted).
		Int("returned", len(ranked)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run complete")

	return ranked, nil
}

// TopSignalMessages composes TopSignals with per-pair formatting.
func (pl *Pipeline) TopSignalMessages(ctx context.Context, limit int) ([]string, error) {
	pairs, err := pl.TopSignals(ctx, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(pairs))
	for i := range pairs {
		messages = append(messages, FormatPair(&pairs[i]))
	}
	return messages, nil
}

func (pl *Pipeline) observeRun(result string, start time.Time) {
	if pl.metrics == nil {
		return
	}
	pl.metrics.PipelineRuns.WithLabelValues(result).Inc()
	pl.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
}

func (pl *Pipeline) observePairs(stats RunStats) {
	if pl.metrics == nil {
		return
	}
	pl.metrics.PairsFetched.Add(float64(stats.Fetch.Fetched))
	pl.metrics.PairsMalformed.Add(float64(stats.Fetch.Malformed))
	pl.metrics.PairsAccepted.Add(float64(stats.Accepted))
	for reason, n := range stats.Rejected {
		pl.metrics.PairsRejected.WithLabelValues(string(reason)).Add(float64(n))
	}
}
