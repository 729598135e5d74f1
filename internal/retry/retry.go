// Package retry wraps fallible operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy bounds retry behavior for an operation. An operation runs at most
// MaxRetries+1 times.
type Policy struct {
	MaxRetries        int           `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
}

// DefaultPolicy matches the upstream API's informal limits: three retries,
// one second base, thirty second cooldown after a 429.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		RateLimitCooldown: 30 * time.Second,
	}
}

// RateLimitError marks a failure as a rate-limit rejection. Retries back off
// for a fixed cooldown window instead of the exponential schedule.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Do runs op with the policy's backoff schedule. The delay before attempt k
// (first attempt is k=0) is BaseDelay * 2^(k-1). The last error is returned
// once attempts are exhausted; it is never swallowed.
func Do(ctx context.Context, p Policy, name string, op func(context.Context) error) error {
	_, err := DoValue(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoff(attempt, lastErr)
			log.Warn().
				Str("op", name).
				Int("attempt", attempt).
				Int("max_retries", p.MaxRetries).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying after failure")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
	}

	log.Error().
		Str("op", name).
		Int("attempts", p.MaxRetries+1).
		Err(lastErr).
		Msg("retries exhausted")
	return zero, lastErr
}

// backoff returns the wait before the given attempt (attempt >= 1).
func (p Policy) backoff(attempt int, lastErr error) time.Duration {
	var rl *RateLimitError
	if errors.As(lastErr, &rl) {
		cooldown := p.RateLimitCooldown
		if rl.RetryAfter > cooldown {
			cooldown = rl.RetryAfter
		}
		return cooldown
	}
	return p.BaseDelay * (1 << uint(attempt-1))
}
