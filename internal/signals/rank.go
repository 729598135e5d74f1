package signals

import (
	"sort"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
)

// Rank orders pairs by 24h volume, highest first. The sort is stable: equal
// volumes keep their input order, which keeps scheduled digests and test
// fixtures reproducible.
func Rank(pairs []dexscreener.Pair) []dexscreener.Pair {
	ranked := make([]dexscreener.Pair, len(pairs))
	copy(ranked, pairs)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].VolumeH24() > ranked[j].VolumeH24()
	})
	return ranked
}
