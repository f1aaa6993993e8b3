// Package retry provides retry logic with exponential backoff for transient failures.
package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config defines retry behavior.
type Config struct {
	MaxRetries     int           // Maximum number of retry attempts (0 = no retries)
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	BackoffFactor  float64       // Multiplier for exponential backoff

	// Retryable classifies errors. Nil means IsRetryable.
	Retryable func(error) bool
}

// DefaultConfig returns the platform's default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

// KafkaConfig is DefaultConfig classifying errors with IsKafkaRetryable.
func KafkaConfig() Config {
	cfg := DefaultConfig()
	cfg.Retryable = IsKafkaRetryable
	return cfg
}

// IsRetryable checks if an error is retryable (transient).
// Network errors, rate limits, and temporary service unavailability are retryable.
// Validation errors and permanent failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	for _, s := range []string{
		"not verified",
		"validation error",
		"invalid",
		"malformed",
		"email address is empty",
		"recipient is required",
	} {
		if strings.Contains(errStr, s) {
			return false
		}
	}

	for _, s := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"rate limit",
		"throttl",
		"503",
		"502",
		"504",
		"too many requests",
		"try again",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}

	return false
}

// IsKafkaRetryable reports whether a broker error is worth another attempt:
// protocol errors flagged temporary or timeout, network timeouts and dropped connections.
func IsKafkaRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary() || kerr.Timeout()
	}

	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, e := range writeErrs {
			if e != nil && !IsKafkaRetryable(e) {
				return false
			}
		}
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return IsRetryable(err)
}

// WithRetry executes fn with retry logic and exponential backoff.
// Only errors accepted by the configured classifier are retried.
func WithRetry(ctx context.Context, cfg Config, operation string, fn func() error) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				slog.Info("Operation succeeded after retry",
					"operation", operation,
					"attempt", attempt+1,
				)
			}
			return nil
		}
		lastErr = err

		if !retryable(err) {
			slog.Debug("Error is not retryable, failing immediately",
				"operation", operation,
				"error", err,
			)
			return err
		}

		if attempt >= cfg.MaxRetries {
			slog.Warn("Max retries exceeded",
				"operation", operation,
				"attempts", attempt+1,
				"error", err,
			)
			return err
		}

		backoff := calculateBackoff(cfg, attempt)
		slog.Warn("Operation failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"max_attempts", cfg.MaxRetries+1,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// calculateBackoff returns initial*factor^attempt capped at MaxBackoff, with ±25% jitter.
func calculateBackoff(cfg Config, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	backoff += backoff * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(backoff)
}
