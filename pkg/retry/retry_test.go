package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

func fastConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

func TestRetry(t *testing.T) {
	errFlaky := errors.New("connection refused")

	tests := []struct {
		name          string
		failures      int
		config        *RetryConfig
		expectedCalls int
		expectError   bool
	}{
		{name: "success on first try", failures: 0, config: fastConfig(3), expectedCalls: 1},
		{name: "success after retries", failures: 2, config: fastConfig(3), expectedCalls: 3},
		{name: "failure after all retries", failures: 5, config: fastConfig(3), expectedCalls: 3, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			operation := func() (string, error) {
				calls++
				if calls <= tt.failures {
					return "", errFlaky
				}
				return "ok", nil
			}

			result, err := Retry(context.Background(), operation, tt.config, logging.NewNoOpLogger())

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, errFlaky)
				assert.Empty(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok", result)
			}
		})
	}
}

func TestRetry_ShouldRetryStopsEarly(t *testing.T) {
	errFatal := errors.New("invalid credentials")
	config := fastConfig(5)
	config.ShouldRetry = func(err error, attempt int) bool {
		return !errors.Is(err, errFatal)
	}

	calls := 0
	err := RetryFunc(context.Background(), func() error {
		calls++
		return errFatal
	}, config, logging.NewNoOpLogger())

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errFatal)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, func() (int, error) {
		calls++
		return 0, nil
	}, fastConfig(3), logging.NewNoOpLogger())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestRetry_InvalidConfig(t *testing.T) {
	config := fastConfig(3)
	config.BackoffFactor = 0.5

	_, err := Retry(context.Background(), func() (int, error) { return 1, nil }, config, logging.NewNoOpLogger())

	assert.ErrorContains(t, err, "invalid retry config")
}

func TestNextDelay_CapsAtMaximum(t *testing.T) {
	assert.Equal(t, 20*time.Millisecond, nextDelay(10*time.Millisecond, 2, time.Second))
	assert.Equal(t, 15*time.Millisecond, nextDelay(10*time.Millisecond, 2, 15*time.Millisecond))
}

func TestWithJitter_StaysWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := withJitter(base, 0.5)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
	assert.Equal(t, base, withJitter(base, 0))
}
