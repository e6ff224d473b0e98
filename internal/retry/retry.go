// Package retry runs a call against an external API again after transient
// failures, backing off exponentially between attempts.
package retry

import (
	"context"
	"math/rand"
	"time"

	serrors "github.com/rankwise/seotrack/internal/errors"
)

// Config bounds the retry loop.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig returns sensible retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
	}
}

// backoff returns the sleep before the given zero-based attempt's retry,
// doubling from BaseDelay and capped at MaxDelay, with optional jitter
// pulling the delay down to between 50% and 100% of the computed value.
func backoff(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay
	for i := 0; i < attempt && delay < cfg.MaxDelay; i++ {
		delay *= 2
	}
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		delay = delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
	}
	return delay
}

// Do calls fn until it succeeds, the error is permanent, attempts run out,
// or ctx is cancelled. Retryability is decided by serrors.IsRetryable.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !serrors.IsRetryable(err) || attempt == cfg.MaxAttempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(cfg, attempt)):
		}
	}
	return err
}
