package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"worker-discovery/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(5), log, "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("rpc error: code = Unavailable")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(5), log, "op", func(context.Context) error {
			calls++
			return errors.New("permission denied")
		})
		assert.ErrorContains(t, err, "permission denied")
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(3), log, "op", func(context.Context) error {
			calls++
			return errors.New("connection refused")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}
		err := RetryWithBackoff(ctx, cfg, log, "op", func(context.Context) error {
			return errors.New("i/o timeout")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("context deadline exceeded")))
	assert.True(t, IsTransient(errors.New("dial tcp: Connection Refused")))
	assert.False(t, IsTransient(errors.New("NOT_FOUND: job 42")))
}
