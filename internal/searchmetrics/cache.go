package searchmetrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/retry"
	"github.com/rankwise/seotrack/lru"
)

// CachedProvider wraps a Provider with a TTL-LRU cache and retry on
// transient failures.
type CachedProvider struct {
	inner  Provider
	cache  *lru.Cache[string, kpi.Snapshot]
	retry  retry.Config
	logger zerolog.Logger
}

// NewCached wraps inner with a cache of the given size whose entries
// expire after ttl.
func NewCached(inner Provider, size int, ttl time.Duration, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  lru.NewWithTTL[string, kpi.Snapshot](size, ttl),
		retry:  retry.DefaultConfig(),
		logger: logger.With().Str("component", "searchmetrics").Logger(),
	}
}

// Fetch returns the cached snapshot when fresh, otherwise fetches through
// the inner provider with retry and caches the result.
func (c *CachedProvider) Fetch(ctx context.Context, subject string) (kpi.Snapshot, error) {
	if snap, ok := c.cache.Get(subject); ok {
		c.logger.Debug().Str("subject", subject).Msg("metrics cache hit")
		return snap, nil
	}

	var snap kpi.Snapshot
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var ferr error
		snap, ferr = c.inner.Fetch(ctx, subject)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	c.cache.Put(subject, snap)
	return snap, nil
}
