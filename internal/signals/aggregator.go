package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/retry"
)

// Searcher is the slice of the DexScreener client the aggregator needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]dexscreener.Pair, error)
}

// AggregatorConfig shapes the trending fan-out. DexScreener has no "top
// trending" endpoint, so we approximate one by merging searches for a
// handful of terms that hot Solana pairs reliably match.
type AggregatorConfig struct {
	Chain      string        `yaml:"chain"`
	QueryTerms []string      `yaml:"query_terms"`
	PerTermCap int           `yaml:"per_term_cap"`
	QueryPause time.Duration `yaml:"query_pause"`
}

func (c *AggregatorConfig) applyDefaults() {
	if c.Chain == "" {
		c.Chain = "solana"
	}
	if len(c.QueryTerms) == 0 {
		c.QueryTerms = []string{"SOL", "USDC", "BONK", "WIF", "pump"}
	}
	if c.PerTermCap == 0 {
		c.PerTermCap = 30
	}
	if c.QueryPause == 0 {
		c.QueryPause = 500 * time.Millisecond
	}
}

// FetchStats reports what one aggregation pass saw, for run logging.
type FetchStats struct {
	TermsQueried int
	TermsFailed  int
	Fetched      int
	OffChain     int
	Malformed    int
	Deduped      int
	NoAddress    int
}

// TrendingAggregator merges several search queries into one deduplicated
// candidate set.
type TrendingAggregator struct {
	client Searcher
	cfg    AggregatorConfig
	policy retry.Policy
}

// NewTrendingAggregator builds an aggregator over the given search client.
func NewTrendingAggregator(client Searcher, cfg AggregatorConfig, policy retry.Policy) *TrendingAggregator {
	cfg.applyDefaults()
	return &TrendingAggregator{client: client, cfg: cfg, policy: policy}
}

// Fetch runs every query term sequentially and returns up to limit
// structurally valid, target-chain pairs, deduplicated by pair address
// (first occurrence wins). A term that keeps failing after retries is
// skipped; Fetch only errors when every term failed and nothing was
// collected.
func (a *TrendingAggregator) Fetch(ctx context.Context, limit int) ([]dexscreener.Pair, FetchStats, error) {
	var (
		merged []dexscreener.Pair
		stats  FetchStats
		seen   = make(map[string]bool)
	)

	for i, term := range a.cfg.QueryTerms {
		if i > 0 {
			// Informal upstream rate limit: pause between queries.
			select {
			case <-time.After(a.cfg.QueryPause):
			case <-ctx.Done():
				return nil, stats, ctx.Err()
			}
		}

		stats.TermsQueried++
		pairs, err := retry.DoValue(ctx, a.policy, "dexscreener.search",
			func(ctx context.Context) ([]dexscreener.Pair, error) {
				return a.client.Search(ctx, term)
			})
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			stats.TermsFailed++
			log.Warn().Str("term", term).Err(err).Msg("query term failed, skipping")
			continue
		}

		kept := 0
		for j := range pairs {
			if kept >= a.cfg.PerTermCap {
				break
			}
			p := pairs[j]
			if p.ChainID != a.cfg.Chain {
				stats.OffChain++
				continue
			}
			if !IsStructurallyValid(&p) {
				stats.Malformed++
				continue
			}
			stats.Fetched++
			kept++

			if p.PairAddress == "" {
				// Cannot participate in dedup; passed through as-is.
				stats.NoAddress++
				log.Debug().Str("pair", p.Name()).
					Msg("pair has no address, dedup not guaranteed")
				merged = append(merged, p)
				continue
			}
			if seen[p.PairAddress] {
				stats.Deduped++
				continue
			}
			seen[p.PairAddress] = true
			merged = append(merged, p)
		}
	}

	if stats.TermsFailed == stats.TermsQueried && len(merged) == 0 {
		return nil, stats, fmt.Errorf("trending aggregation: all %d query terms failed", stats.TermsQueried)
	}

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, stats, nil
}
