package netutil

import (
	"context"
	"time"
)

// RetryConfig bounds a retried operation. Zero values pick defaults.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget, including the first call.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number for linear backoff.
	BaseDelay time.Duration
	// RetryIf filters which failures are retried. Nil retries everything.
	RetryIf func(error) bool
}

func (c RetryConfig) attempts() int {
	if c.MaxAttempts <= 0 {
		return 3
	}
	return c.MaxAttempts
}

func (c RetryConfig) base() time.Duration {
	if c.BaseDelay <= 0 {
		return time.Second
	}
	return c.BaseDelay
}

// Retry invokes op up to the attempt budget, sleeping baseDelay*attempt
// between failures. The last failure is returned unchanged. Context
// cancellation during backoff aborts with the context error.
func Retry(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	attempts := cfg.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if cfg.RetryIf != nil && !cfg.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := cfg.base() * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, cfg, func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		out = v
		return nil
	})
	return out, err
}
