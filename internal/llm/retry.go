package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/webforge/crawlkit/internal/models"
)

// RetryConfig bounds exponential backoff, grounded on
// rohmanhakim-docs-crawler/pkg/retry's retrier shape (max attempts, base
// delay, multiplier, max delay).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    10 * time.Second,
	}
}

// retryable classifies a CrawlError per spec §4.10: network, timeout,
// rate-limit (honoring retry-after) are retryable; invalid-request is not.
func retryable(err error) (bool, time.Duration) {
	var ce *models.CrawlError
	if !errors.As(err, &ce) {
		return false, 0
	}
	if ce.Kind == models.ErrRateLimited {
		return true, ce.RetryAfter
	}
	return ce.Retryable, 0
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if d := time.Duration(delay); d < cfg.MaxDelay {
		return d
	}
	return cfg.MaxDelay
}

// withRetry runs fn up to cfg.MaxAttempts times, honoring retry-after on
// rate-limit errors and exponential backoff otherwise. Returns the last
// error if every attempt fails or the error class isn't retryable.
func withRetry(ctx context.Context, cfg RetryConfig, stats *Stats, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		canRetry, retryAfter := retryable(lastErr)
		if !canRetry || attempt == cfg.MaxAttempts-1 {
			return lastErr
		}

		stats.RecordRetry()
		delay := retryAfter
		if delay == 0 {
			delay = backoffDelay(cfg, attempt)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
