package signals

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
)

// RejectReason names the first predicate a pair failed. Used as a metrics
// label and in debug logs; never exposed to subscribers.
type RejectReason string

const (
	ReasonNone            RejectReason = ""
	ReasonLowVolume       RejectReason = "low_volume"
	ReasonLowLiquidity    RejectReason = "low_liquidity"
	ReasonFlatPrice       RejectReason = "flat_price"
	ReasonLowActivity     RejectReason = "low_activity"
	ReasonImbalancedFlow  RejectReason = "imbalanced_flow"
	ReasonMarketCapRange  RejectReason = "market_cap_range"
	ReasonVolLiqRatio     RejectReason = "volume_liquidity_ratio"
	ReasonSuspiciousName  RejectReason = "suspicious_name"
	ReasonScamFlagged     RejectReason = "scam_flagged"
)

// Decision records one filter evaluation for observability.
type Decision struct {
	Pair     *dexscreener.Pair
	Accepted bool
	Reason   RejectReason
}

// FilterConfig holds the quality thresholds. Zero values are replaced by
// defaults tuned for Solana meme-pair screening.
type FilterConfig struct {
	MinVolumeUSD    float64 `yaml:"min_volume_usd"`
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
	MinChangeH1Pct  float64 `yaml:"min_change_h1_pct"`
	MinTxnsH1       int     `yaml:"min_txns_h1"`
	MinBuyRatio     float64 `yaml:"min_buy_ratio"`
	MaxBuyRatio     float64 `yaml:"max_buy_ratio"`
	MinMarketCapUSD float64 `yaml:"min_market_cap_usd"`
	MaxMarketCapUSD float64 `yaml:"max_market_cap_usd"`
	MinVolLiqRatio  float64 `yaml:"min_vol_liq_ratio"`
	MaxVolLiqRatio  float64 `yaml:"max_vol_liq_ratio"`
	NameBlacklist []string `yaml:"name_blacklist"`
	// DisableScamChecks turns the heuristic detector off. Inverted so the
	// zero-value config keeps the checks on.
	DisableScamChecks bool `yaml:"disable_scam_checks"`
}

// DefaultFilterConfig returns the production thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinVolumeUSD:    10_000,
		MinLiquidityUSD: 5_000,
		MinChangeH1Pct:  10,
		MinTxnsH1:       10,
		MinBuyRatio:     0.15,
		MaxBuyRatio:     0.85,
		MinMarketCapUSD: 5_000,
		MaxMarketCapUSD: 50_000_000,
		MinVolLiqRatio:  0.2,
		MaxVolLiqRatio:  5.0,
		NameBlacklist:   []string{"test", "fake", "scam", "rug", "honeypot", "dead"},
	}
}

func (c *FilterConfig) applyDefaults() {
	def := DefaultFilterConfig()
	if c.MinVolumeUSD == 0 {
		c.MinVolumeUSD = def.MinVolumeUSD
	}
	if c.MinLiquidityUSD == 0 {
		c.MinLiquidityUSD = def.MinLiquidityUSD
	}
	if c.MinChangeH1Pct == 0 {
		c.MinChangeH1Pct = def.MinChangeH1Pct
	}
	if c.MinTxnsH1 == 0 {
		c.MinTxnsH1 = def.MinTxnsH1
	}
	if c.MinBuyRatio == 0 && c.MaxBuyRatio == 0 {
		c.MinBuyRatio, c.MaxBuyRatio = def.MinBuyRatio, def.MaxBuyRatio
	}
	if c.MinMarketCapUSD == 0 {
		c.MinMarketCapUSD = def.MinMarketCapUSD
	}
	if c.MaxMarketCapUSD == 0 {
		c.MaxMarketCapUSD = def.MaxMarketCapUSD
	}
	if c.MinVolLiqRatio == 0 && c.MaxVolLiqRatio == 0 {
		c.MinVolLiqRatio, c.MaxVolLiqRatio = def.MinVolLiqRatio, def.MaxVolLiqRatio
	}
	if len(c.NameBlacklist) == 0 {
		c.NameBlacklist = def.NameBlacklist
	}
}

// Filter applies the quality predicates. All predicates must pass; the
// first failure decides the reject reason.
type Filter struct {
	cfg      FilterConfig
	detector *Detector
}

// NewFilter builds a filter, filling unset thresholds with defaults.
func NewFilter(cfg FilterConfig) *Filter {
	cfg.applyDefaults()
	return &Filter{cfg: cfg, detector: NewDetector()}
}

// Accept reports whether the pair passes every predicate.
func (f *Filter) Accept(p *dexscreener.Pair) bool {
	return f.Evaluate(p).Accepted
}

// Evaluate runs the predicate chain and records why a pair was rejected.
// Callers must validate structure first; Evaluate assumes a coherent pair.
func (f *Filter) Evaluate(p *dexscreener.Pair) Decision {
	if reason := f.reject(p); reason != ReasonNone {
		return Decision{Pair: p, Accepted: false, Reason: reason}
	}
	return Decision{Pair: p, Accepted: true}
}

func (f *Filter) reject(p *dexscreener.Pair) RejectReason {
	volume := p.VolumeH24()
	if volume < f.cfg.MinVolumeUSD {
		return ReasonLowVolume
	}

	liquidity := p.LiquidityUSD()
	if liquidity < f.cfg.MinLiquidityUSD {
		return ReasonLowLiquidity
	}

	if math.Abs(p.ChangeH1()) < f.cfg.MinChangeH1Pct {
		return ReasonFlatPrice
	}

	// Missing transaction data is a rejection, not a pass-through: a pair
	// the API cannot report activity for is not a signal.
	buys, sells, ok := p.TxnsH1()
	if !ok || buys+sells < f.cfg.MinTxnsH1 {
		return ReasonLowActivity
	}

	ratio := float64(buys) / float64(buys+sells)
	if ratio < f.cfg.MinBuyRatio || ratio > f.cfg.MaxBuyRatio {
		return ReasonImbalancedFlow
	}

	// Unknown market cap cannot be evaluated, so it does not reject.
	if mcap := p.MarketCapUSD(); mcap > 0 {
		if mcap < f.cfg.MinMarketCapUSD || mcap > f.cfg.MaxMarketCapUSD {
			return ReasonMarketCapRange
		}
	}

	if volume > 0 && liquidity > 0 {
		vlr := volume / liquidity
		if vlr < f.cfg.MinVolLiqRatio || vlr > f.cfg.MaxVolLiqRatio {
			return ReasonVolLiqRatio
		}
	}

	if f.hasBlacklistedName(p) {
		return ReasonSuspiciousName
	}

	if !f.cfg.DisableScamChecks && f.detector.Check(p) == VerdictFail {
		return ReasonScamFlagged
	}

	return ReasonNone
}

func (f *Filter) hasBlacklistedName(p *dexscreener.Pair) bool {
	name := strings.ToLower(p.BaseToken.Name)
	symbol := strings.ToLower(p.BaseToken.Symbol)
	for _, term := range f.cfg.NameBlacklist {
		t := strings.ToLower(term)
		if strings.Contains(name, t) || strings.Contains(symbol, t) {
			log.Debug().Str("pair", p.Name()).Str("term", t).Msg("blacklisted name term")
			return true
		}
	}
	return false
}
