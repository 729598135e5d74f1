// Package numeric converts loosely typed upstream values into Go numbers.
//
// DexScreener ships numerics as floats, strings, nulls, or omits them
// entirely depending on the endpoint and the pair's age. Every downstream
// stage funnels through these helpers, so they are total: any input yields
// a finite result or the caller's default, never a panic.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// nullTokens are string literals upstream uses where a number is missing.
var nullTokens = map[string]bool{
	"null":      true,
	"none":      true,
	"undefined": true,
}

// ToFloat coerces v into a float64, returning def when v is nil, empty,
// a null token, non-finite, or not numeric at all.
func ToFloat(v any, def float64) float64 {
	switch n := v.(type) {
	case nil:
		return def
	case float64:
		return finiteOr(n, def)
	case float32:
		return finiteOr(float64(n), def)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		return parseFloat(n.String(), def)
	case string:
		return parseFloat(n, def)
	default:
		return def
	}
}

// ToInt coerces v into an int via ToFloat, truncating toward zero.
func ToInt(v any, def int) int {
	f := ToFloat(v, float64(def))
	if f > math.MaxInt64 || f < math.MinInt64 {
		return def
	}
	return int(f)
}

func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" || nullTokens[strings.ToLower(s)] {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return finiteOr(f, def)
}

func finiteOr(f, def float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
