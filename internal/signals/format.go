package signals

import (
	"fmt"
	"strings"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
)

const (
	vipHeader    = "💎 *VIP SIGNALS*\n\n"
	publicHeader = "📊 *Top Crypto Pairs Today*\n\n"
	vipFooter    = "🔒 *Private signals for VIP members only.*"
	publicFooter = "💎 Want more? [Join VIP](https://t.me/+sR2qa2jnr6o5MDk0) for exclusive updates!"

	// EmptyDigest is what subscribers see when no pair met the quality bars.
	EmptyDigest = "⚠️ No high-quality signals found right now."
)

// FormatPair renders one pair as a Telegram Markdown block.
func FormatPair(p *dexscreener.Pair) string {
	emoji := "📈"
	if p.ChangeH1() <= 0 {
		emoji = "📉"
	}

	return fmt.Sprintf(
		"%s [%s](%s)\n"+
			"💰 Price: `$%.6f`\n"+
			"💹 1h Change: `%.2f%%`\n"+
			"📊 Volume 24h: `$%s`\n"+
			"🔒 Liquidity: `$%s`",
		emoji, p.Name(), p.URL,
		p.PriceUSD(),
		p.ChangeH1(),
		groupThousands(p.VolumeH24()),
		groupThousands(p.LiquidityUSD()),
	)
}

// FormatDigest composes a channel digest from ranked pairs.
func FormatDigest(pairs []dexscreener.Pair, vip bool) string {
	if len(pairs) == 0 {
		return EmptyDigest
	}

	header, footer := publicHeader, publicFooter
	if vip {
		header, footer = vipHeader, vipFooter
	}

	blocks := make([]string, 0, len(pairs))
	for i := range pairs {
		blocks = append(blocks, FormatPair(&pairs[i]))
	}
	return header + strings.Join(blocks, "\n\n") + "\n\n" + footer
}

// groupThousands renders a rounded amount with comma separators ("20,000").
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	out := b.String()
	if neg {
		return "-" + out
	}
	return out
}
