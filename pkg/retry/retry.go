package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

// RetryConfig controls attempts and exponential backoff.
type RetryConfig struct {
	MaxRetries    int           // total attempts, including the first one
	InitialDelay  time.Duration // delay after the first failure
	MaxDelay      time.Duration // backoff ceiling
	BackoffFactor float64
	JitterFactor  float64 // extra random share of the delay, 0..1
	LogAttempts   bool

	// ShouldRetry stops early when it returns false for (err, attempt).
	ShouldRetry func(error, int) bool
}

// DefaultRetryConfig fits startup connectivity checks against Mongo, Redis and the RPC node.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
		LogAttempts:   true,
	}
}

func (c *RetryConfig) Validate() error {
	if c.MaxRetries < 1 {
		return errors.New("MaxRetries must be >= 1")
	}
	if c.InitialDelay <= 0 {
		return errors.New("InitialDelay must be positive")
	}
	if c.MaxDelay < c.InitialDelay {
		return errors.New("MaxDelay must be >= InitialDelay")
	}
	if c.BackoffFactor < 1.0 {
		return errors.New("BackoffFactor must be >= 1.0")
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1.0 {
		return errors.New("JitterFactor must be between 0.0 and 1.0")
	}
	return nil
}

// withJitter adds up to jitterFactor*base on top of base.
func withJitter(base time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return base
	}
	return base + time.Duration(jitterFactor*float64(base)*rand.Float64())
}

func nextDelay(current time.Duration, factor float64, ceiling time.Duration) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > ceiling {
		return ceiling
	}
	return next
}

// Retry runs operation until it succeeds, the attempts run out, ShouldRetry declines, or ctx ends.
func Retry[T any](ctx context.Context, operation func() (T, error), config *RetryConfig, logger logging.Logger) (T, error) {
	var zero T

	if config == nil {
		config = DefaultRetryConfig()
	}
	if err := config.Validate(); err != nil {
		return zero, fmt.Errorf("invalid retry config: %w", err)
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if config.ShouldRetry != nil && !config.ShouldRetry(err, attempt) {
			return zero, err
		}
		if attempt == config.MaxRetries {
			break
		}

		sleep := withJitter(delay, config.JitterFactor)
		if config.LogAttempts && logger != nil {
			logger.Warnf("Attempt %d/%d failed: %v. Retrying in %v", attempt, config.MaxRetries, err, sleep)
		}

		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
			delay = nextDelay(delay, config.BackoffFactor, config.MaxDelay)
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries, lastErr)
}

// RetryFunc is Retry for operations without a result.
func RetryFunc(ctx context.Context, operation func() error, config *RetryConfig, logger logging.Logger) error {
	_, err := Retry(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, config, logger)
	return err
}
