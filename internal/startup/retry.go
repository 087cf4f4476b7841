package startup

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures the exponential backoff retry behavior.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// DefaultRetryConfig returns the backoff for local IPC. It covers the window
// in which the instance holder has the lock but has not yet published its
// endpoint.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		MaxAttempts:  8,
		Multiplier:   2.0,
	}
}

// IsNetworkError checks if an error is likely due to an endpoint not being reachable yet.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	var opErr *net.OpError
	if errors.As(err, &netErr) || errors.As(err, &opErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkIndicators := []string{
		"connection refused",
		"timeout",
		"dial tcp",
		"i/o timeout",
		"connection reset",
		"broken pipe",
		"eof",
	}
	for _, indicator := range networkIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// IsTransient reports whether retrying err may succeed: network errors, and
// files that another process has not written yet.
func IsTransient(err error) bool {
	return IsNetworkError(err) || errors.Is(err, fs.ErrNotExist)
}

// WithRetry executes fn with exponential backoff retry for transient errors only.
// Other errors fail immediately without retry.
func WithRetry(ctx context.Context, name string, cfg RetryConfig, fn func() error, logger *zerolog.Logger) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("operation", name).Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !IsTransient(err) {
			logger.Error().Err(err).Str("operation", name).Msg("permanent error, not retrying")
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay = waitAndBackoff(ctx, logger, name, attempt, cfg, delay, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	logger.Error().Err(lastErr).Str("operation", name).Int("attempts", cfg.MaxAttempts).
		Msg("operation failed after all retries")
	return lastErr
}

func waitAndBackoff(ctx context.Context, logger *zerolog.Logger, name string, attempt int, cfg RetryConfig, delay time.Duration, err error) time.Duration {
	logger.Warn().
		Err(err).
		Str("operation", name).
		Int("attempt", attempt).
		Int("maxAttempts", cfg.MaxAttempts).
		Dur("nextRetryIn", delay).
		Msg("transient error, will retry")

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}

	next := time.Duration(float64(delay) * cfg.Multiplier)
	if next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}
	return next
}
