package signals

import (
	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
)

// Verdict is the outcome of one heuristic safety check. Unknown means the
// check has no data to decide with; it passes by default but is kept
// distinct from Pass so callers can see how much of the result set is
// actually unverified.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictPass
	VerdictFail
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Detector runs heuristic scam checks over a pair. None of these verify
// anything on-chain; without an audit data source most pairs come back
// Unknown.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Renounced would confirm the deployer gave up mint authority. No data
// source exposes this yet, so every pair is Unknown.
func (d *Detector) Renounced(p *dexscreener.Pair) Verdict {
	return VerdictUnknown
}

// LPLocked checks the liquidity lock flag when the API exposes one.
func (d *Detector) LPLocked(p *dexscreener.Pair) Verdict {
	if p.Liquidity == nil || p.Liquidity.Locked == nil {
		return VerdictUnknown
	}
	if locked, ok := p.Liquidity.Locked.(bool); ok {
		if locked {
			return VerdictPass
		}
		return VerdictFail
	}
	return VerdictUnknown
}

// TaxOK would flag tokens with confiscatory buy/sell taxes. No data source
// exposes tax rates, so every pair is Unknown.
func (d *Detector) TaxOK(p *dexscreener.Pair) Verdict {
	return VerdictUnknown
}

// Check combines the individual heuristics. Any Fail fails the pair; all
// Pass passes it; anything else is Unknown, which downstream treats as
// pass-by-default.
func (d *Detector) Check(p *dexscreener.Pair) Verdict {
	verdicts := []Verdict{d.Renounced(p), d.LPLocked(p), d.TaxOK(p)}

	combined := VerdictPass
	for _, v := range verdicts {
		switch v {
		case VerdictFail:
			return VerdictFail
		case VerdictUnknown:
			combined = VerdictUnknown
		}
	}

	if combined == VerdictUnknown {
		log.Debug().Str("pair", p.Name()).Msg("scam checks inconclusive, passing by default")
	}
	return combined
}
