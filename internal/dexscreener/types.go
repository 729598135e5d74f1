package dexscreener

import (
	"github.com/eurotax/satoshi-bot/internal/numeric"
)

// Token identifies one side of a trading pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnWindow holds buy/sell counts for one time window. Counts are loosely
// typed because the API occasionally ships them as strings or nulls.
type TxnWindow struct {
	Buys  any `json:"buys"`
	Sells any `json:"sells"`
}

// Txns holds per-window transaction counts. A nil window means the API
// omitted it for this pair.
type Txns struct {
	M5  *TxnWindow `json:"m5"`
	H1  *TxnWindow `json:"h1"`
	H6  *TxnWindow `json:"h6"`
	H24 *TxnWindow `json:"h24"`
}

// Volume holds per-window USD volume.
type Volume struct {
	M5  any `json:"m5"`
	H1  any `json:"h1"`
	H6  any `json:"h6"`
	H24 any `json:"h24"`
}

// PriceChange holds per-window price change percentages.
type PriceChange struct {
	M5  any `json:"m5"`
	H1  any `json:"h1"`
	H6  any `json:"h6"`
	H24 any `json:"h24"`
}

// Liquidity holds pool liquidity. Pointer at the call site: the API sends
// null for brand-new pairs.
type Liquidity struct {
	USD    any `json:"usd"`
	Base   any `json:"base"`
	Quote  any `json:"quote"`
	Locked any `json:"locked"`
}

// Pair is one DexScreener trading pair as returned by the search and
// pair-lookup endpoints. Numeric fields stay `any` until they pass through
// the numeric package; the upstream schema is not trustworthy enough to
// decode them as float64 directly.
type Pair struct {
	ChainID       string       `json:"chainId"`
	DexID         string       `json:"dexId"`
	URL           string       `json:"url"`
	PairAddress   string       `json:"pairAddress"`
	BaseToken     Token        `json:"baseToken"`
	QuoteToken    Token        `json:"quoteToken"`
	PriceNative   any          `json:"priceNative"`
	PriceUsd      any          `json:"priceUsd"`
	Txns          Txns         `json:"txns"`
	Volume        Volume       `json:"volume"`
	PriceChange   PriceChange  `json:"priceChange"`
	Liquidity     *Liquidity   `json:"liquidity"`
	FDV           any          `json:"fdv"`
	MarketCap     any          `json:"marketCap"`
	PairCreatedAt int64        `json:"pairCreatedAt"`
}

// searchResponse is the envelope of /latest/dex/search.
type searchResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// pairResponse is the envelope of /latest/dex/pairs/{chain}/{address}.
type pairResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pair          *Pair  `json:"pair"`
	Pairs         []Pair `json:"pairs"`
}

// PriceUSD returns the coerced USD price, 0 when missing or malformed.
func (p *Pair) PriceUSD() float64 {
	return numeric.ToFloat(p.PriceUsd, 0)
}

// VolumeH24 returns the coerced 24h USD volume.
func (p *Pair) VolumeH24() float64 {
	return numeric.ToFloat(p.Volume.H24, 0)
}

// LiquidityUSD returns the coerced USD liquidity, 0 when the API sent null.
func (p *Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return numeric.ToFloat(p.Liquidity.USD, 0)
}

// ChangeH1 returns the coerced 1h price change percentage.
func (p *Pair) ChangeH1() float64 {
	return numeric.ToFloat(p.PriceChange.H1, 0)
}

// ChangeH24 returns the coerced 24h price change percentage.
func (p *Pair) ChangeH24() float64 {
	return numeric.ToFloat(p.PriceChange.H24, 0)
}

// TxnsH1 returns 1h buy/sell counts. ok is false when the window is absent,
// which filters treat as a rejection rather than zero activity.
func (p *Pair) TxnsH1() (buys, sells int, ok bool) {
	w := p.Txns.H1
	if w == nil {
		return 0, 0, false
	}
	return numeric.ToInt(w.Buys, 0), numeric.ToInt(w.Sells, 0), true
}

// MarketCapUSD returns the coerced market cap; non-positive means unknown.
func (p *Pair) MarketCapUSD() float64 {
	return numeric.ToFloat(p.MarketCap, 0)
}

// Name returns "BASE/QUOTE" for logs and messages.
func (p *Pair) Name() string {
	return p.BaseToken.Symbol + "/" + p.QuoteToken.Symbol
}
