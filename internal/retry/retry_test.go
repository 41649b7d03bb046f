package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDoSucceedsAfterTransientFailures verifies the documented backoff
// schedule: an op failing twice then succeeding sleeps initialDelay, then
// 2*initialDelay, and returns the success result.
func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var sleeps []time.Duration
	calls := 0

	cfg := Config{
		MaxRetries:   3,
		InitialDelay: 1000 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}

	result, err := Do(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}, sleeps)
}

// TestDoExhaustsRetries verifies the original error surfaces after exactly
// MaxRetries attempts.
func TestDoExhaustsRetries(t *testing.T) {
	opErr := errors.New("dial tcp: connection refused")
	calls := 0

	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Sleep:        func(context.Context, time.Duration) error { return nil },
	}

	_, err := Do(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, opErr
	})

	require.ErrorIs(t, err, opErr)
	assert.Equal(t, 3, calls)
}

// TestDoNonRetryableFailsImmediately verifies semantic failures bypass the
// retry loop entirely.
func TestDoNonRetryableFailsImmediately(t *testing.T) {
	opErr := errors.New("duplicate entry for key email")
	calls := 0

	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Retryable:    func(error) bool { return false },
		Sleep: func(context.Context, time.Duration) error {
			t.Fatal("sleep should not be called for non-retryable errors")
			return nil
		},
	}

	_, err := Do(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, opErr
	})

	require.ErrorIs(t, err, opErr)
	assert.Equal(t, 1, calls)
}

func TestDoSuccessNeedsNoRetry(t *testing.T) {
	cfg := Config{
		Sleep: func(context.Context, time.Duration) error {
			t.Fatal("sleep should not be called on immediate success")
			return nil
		},
	}

	result, err := Do(context.Background(), cfg, func() (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestDoRespectsContextDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Hour, // would hang without cancellation
	}

	_, err := Do(ctx, cfg, func() (int, error) {
		return 0, errors.New("i/o timeout")
	})

	require.ErrorIs(t, err, context.Canceled)
}
