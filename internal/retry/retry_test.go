package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Millisecond, RateLimitCooldown: 5 * time.Millisecond}
}

func TestDoRetryBound(t *testing.T) {
	calls := 0
	errFail := errors.New("always fails")

	err := Do(context.Background(), fastPolicy(), "always-fail", func(context.Context) error {
		calls++
		return errFail
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errFail)
	assert.Equal(t, 4, calls, "MaxRetries=3 must mean exactly 4 attempts")
}

func TestDoEventualSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), "flaky", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient %d", calls)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoValueReturnsValue(t *testing.T) {
	got, err := DoValue(context.Background(), fastPolicy(), "value", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Policy{MaxRetries: 5, BaseDelay: time.Minute}, "cancelled", func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail once")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation must stop the schedule before the next attempt")
}

func TestBackoffSchedule(t *testing.T) {
	p := Policy{MaxRetries: 4, BaseDelay: 100 * time.Millisecond, RateLimitCooldown: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.backoff(1, errors.New("x")))
	assert.Equal(t, 200*time.Millisecond, p.backoff(2, errors.New("x")))
	assert.Equal(t, 400*time.Millisecond, p.backoff(3, errors.New("x")))
	assert.Equal(t, 800*time.Millisecond, p.backoff(4, errors.New("x")))
}

func TestBackoffRateLimit(t *testing.T) {
	p := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, RateLimitCooldown: time.Second}

	// Fixed cooldown wins over the exponential schedule.
	err := &RateLimitError{Provider: "dexscreener"}
	assert.Equal(t, time.Second, p.backoff(1, err))

	// Server-provided Retry-After wins when longer.
	err = &RateLimitError{Provider: "dexscreener", RetryAfter: 3 * time.Second}
	assert.Equal(t, 3*time.Second, p.backoff(1, err))

	// Wrapped rate-limit errors are still recognized.
	wrapped := fmt.Errorf("search failed: %w", err)
	assert.True(t, IsRateLimit(wrapped))
	assert.Equal(t, 3*time.Second, p.backoff(2, wrapped))
}

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.False(t, IsRateLimit(errors.New("plain")))
	assert.True(t, IsRateLimit(&RateLimitError{Provider: "bybit"}))
}
