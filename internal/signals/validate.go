// Package signals turns raw DexScreener pairs into a ranked, quality
// filtered signal set.
package signals

import (
	"strings"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
)

// IsStructurallyValid reports whether a pair carries the minimum shape the
// filter stages rely on: both token symbols present and a positive USD
// price. Pairs failing here are malformed, not filtered, and are counted
// separately in run statistics.
func IsStructurallyValid(p *dexscreener.Pair) bool {
	if p == nil {
		return false
	}
	if strings.TrimSpace(p.BaseToken.Symbol) == "" {
		return false
	}
	if strings.TrimSpace(p.QuoteToken.Symbol) == "" {
		return false
	}
	return p.PriceUSD() > 0
}
