// Package retry wraps data-store operations with exponential-backoff retries
// for transient infrastructure failures.
package retry

import (
	"context"
	"time"

	"talenttrack/internal/logger"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1000 * time.Millisecond
)

// Config controls retry behavior for one operation.
type Config struct {
	// MaxRetries is the total number of attempts, not the number of re-tries.
	MaxRetries int
	// InitialDelay is the wait after the first failed attempt; attempt n waits
	// InitialDelay * 2^(n-1). No jitter is applied, so the schedule is
	// deterministic.
	InitialDelay time.Duration
	// Retryable classifies errors. A nil classifier retries every error.
	// Errors it rejects propagate immediately without further attempts.
	Retryable func(error) bool
	// Sleep is injectable for tests. Nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do executes op, retrying transient failures with exponential backoff.
// After the final attempt fails, the last error is returned.
func Do[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_retries", cfg.MaxRetries).
			Dur("delay", delay).
			Msg("operation failed, retrying")

		if err := cfg.Sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}

	return zero, lastErr
}
