// Package alerts turns pipeline output into channel digests and keeps
// them on schedule through the job registry.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/jobs"
	"github.com/eurotax/satoshi-bot/internal/retry"
	"github.com/eurotax/satoshi-bot/internal/signals"
	"github.com/eurotax/satoshi-bot/internal/telemetry"
)

// Notifier delivers a rendered digest to one chat. *telegram.Bot
// satisfies it.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Channel describes one digest destination and its cadence.
type Channel struct {
	Name     string        `yaml:"name"`
	ChatID   string        `yaml:"chat_id"`
	VIP      bool          `yaml:"vip"`
	Limit    int           `yaml:"limit"`
	Interval time.Duration `yaml:"interval"`
	// FirstDelay staggers the initial send after startup.
	FirstDelay time.Duration `yaml:"first_delay"`
	// SeenTTL suppresses a pair from repeat digests for this long.
	// Zero means suppress for one Interval.
	SeenTTL time.Duration `yaml:"seen_ttl"`
}

func (c Channel) seenTTL() time.Duration {
	if c.SeenTTL > 0 {
		return c.SeenTTL
	}
	return c.Interval
}

// DefaultChannels is the stock two-tier setup: a fast small VIP digest
// and a slower, larger public one.
func DefaultChannels(vipChatID, publicChatID string) []Channel {
	return []Channel{
		{Name: "vip", ChatID: vipChatID, VIP: true, Limit: 3, Interval: 15 * time.Minute, FirstDelay: 10 * time.Second},
		{Name: "public", ChatID: publicChatID, Limit: 5, Interval: 8 * time.Hour, FirstDelay: 30 * time.Second},
	}
}

// Publisher runs the signal pipeline on a schedule and posts digests.
type Publisher struct {
	pipeline *signals.Pipeline
	notifier Notifier
	seen     SeenStore
	metrics  *telemetry.Metrics
	policy   retry.Policy
	// runTimeout bounds one digest cycle end to end.
	runTimeout time.Duration
}

// NewPublisher wires the digest publisher. metrics may be nil.
func NewPublisher(pipeline *signals.Pipeline, notifier Notifier, seen SeenStore, metrics *telemetry.Metrics) *Publisher {
	if seen == nil {
		seen = NewMemorySeenStore()
	}
	return &Publisher{
		pipeline:   pipeline,
		notifier:   notifier,
		seen:       seen,
		metrics:    metrics,
		policy:     retry.DefaultPolicy(),
		runTimeout: 2 * time.Minute,
	}
}

// PublishDigest runs one fetch-filter-rank cycle for ch and sends the
// digest. Pairs alerted within the channel's suppression window are
// dropped; if nothing survives, subscribers get the empty-digest notice
// so cadence stays visible.
func (p *Publisher) PublishDigest(ctx context.Context, ch Channel) error {
	pairs, err := p.pipeline.TopSignals(ctx, ch.Limit)
	if err != nil {
		return fmt.Errorf("digest %s: %w", ch.Name, err)
	}

	kept := p.suppressSeen(ctx, ch, pairs)
	text := signals.FormatDigest(kept, ch.VIP)

	err = retry.Do(ctx, p.policy, "telegram_send", func(ctx context.Context) error {
		return p.notifier.SendMessage(ctx, ch.ChatID, text)
	})
	if err != nil {
		return fmt.Errorf("digest %s: send: %w", ch.Name, err)
	}

	if p.metrics != nil {
		p.metrics.AlertsSent.WithLabelValues(ch.Name).Inc()
	}
	log.Info().Str("channel", ch.Name).Int("signals", len(kept)).Int("suppressed", len(pairs)-len(kept)).
		Msg("digest published")
	return nil
}

// suppressSeen drops pairs already alerted inside the window. Store
// errors fail open: better a repeat signal than a silent channel.
func (p *Publisher) suppressSeen(ctx context.Context, ch Channel, pairs []dexscreener.Pair) []dexscreener.Pair {
	kept := make([]dexscreener.Pair, 0, len(pairs))
	for _, pair := range pairs {
		if pair.PairAddress == "" {
			kept = append(kept, pair)
			continue
		}
		key := ch.Name + ":" + pair.PairAddress
		first, err := p.seen.MarkSeen(ctx, key, ch.seenTTL())
		if err != nil {
			log.Warn().Err(err).Str("pair", pair.PairAddress).Msg("seen store failed, keeping pair")
			kept = append(kept, pair)
			continue
		}
		if !first {
			if p.metrics != nil {
				p.metrics.AlertsSuppressed.Inc()
			}
			continue
		}
		kept = append(kept, pair)
	}
	return kept
}

// Schedule registers a repeating digest job per channel. Failures inside
// a cycle are logged, never fatal to the schedule.
func (p *Publisher) Schedule(reg *jobs.Registry, runner jobs.Runner, channels []Channel) error {
	for _, ch := range channels {
		ch := ch
		cb := func(ctx context.Context, data any) {
			runCtx, cancel := context.WithTimeout(ctx, p.runTimeout)
			defer cancel()
			if err := p.PublishDigest(runCtx, ch); err != nil {
				log.Error().Err(err).Str("channel", ch.Name).Msg("digest cycle failed")
			}
		}
		name := ch.Name + "_signals"
		if _, err := reg.Register(runner, cb, ch.Interval, ch.FirstDelay, nil, name); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
	}
	return nil
}
