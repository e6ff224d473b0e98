package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/stretchr/testify/assert"
)

var fastCfg = Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 8 * time.Millisecond}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastCfg, func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_TransientFailureThenSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastCfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return serrors.ErrTimeout
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_AttemptsExhausted(t *testing.T) {
	calls := 0
	cfg := fastCfg
	cfg.MaxAttempts = 2
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return serrors.NewAPIError("searchmetrics", 429, "rate limit")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	for name, err := range map[string]error{
		"sentinel": serrors.ErrInvalidInput,
		"generic":  errors.New("boom"),
	} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			got := Do(context.Background(), fastCfg, func(ctx context.Context) error {
				calls++
				return err
			})
			assert.ErrorIs(t, got, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestDo_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, fastCfg, func(ctx context.Context) error {
		return serrors.ErrTimeout
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_DoublesAndCaps(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 4 * time.Second}
	assert.Equal(t, time.Second, backoff(cfg, 0))
	assert.Equal(t, 2*time.Second, backoff(cfg, 1))
	assert.Equal(t, 4*time.Second, backoff(cfg, 2))
	assert.Equal(t, 4*time.Second, backoff(cfg, 5))
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: true}
	for i := 0; i < 50; i++ {
		d := backoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}
