package searchmetrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/retry"
)

func TestHTTPProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)
		assert.Equal(t, "/pricing", r.URL.Query().Get("subject"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"clicks": 120, "impressions": 8000, "click_through_rate": 0.015}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "secret", 5*time.Second)
	snap, err := p.Fetch(context.Background(), "/pricing")
	require.NoError(t, err)

	v := kpi.Table[kpi.Clicks].Extract(snap)
	require.NotNil(t, v)
	assert.Equal(t, 120.0, *v)
}

func TestHTTPProvider_NonOKSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", 5*time.Second)
	_, err := p.Fetch(context.Background(), "/pricing")
	require.Error(t, err)

	var apiErr *serrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, serrors.IsRetryable(err))
}

type scriptedProvider struct {
	calls atomic.Int32
	fn    func(call int32) (kpi.Snapshot, error)
}

func (s *scriptedProvider) Fetch(ctx context.Context, subject string) (kpi.Snapshot, error) {
	return s.fn(s.calls.Add(1))
}

func newFastCached(inner Provider, ttl time.Duration) *CachedProvider {
	c := NewCached(inner, 8, ttl, zerolog.Nop())
	c.retry = retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return c
}

func TestCachedProvider_CacheHit(t *testing.T) {
	inner := &scriptedProvider{fn: func(int32) (kpi.Snapshot, error) {
		return kpi.Snapshot{"clicks": 100.0}, nil
	}}
	c := newFastCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		snap, err := c.Fetch(context.Background(), "/pricing")
		require.NoError(t, err)
		assert.Equal(t, 100.0, snap["clicks"])
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	// A different subject misses
	_, err := c.Fetch(context.Background(), "/other")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedProvider_RetriesTransientFailures(t *testing.T) {
	inner := &scriptedProvider{fn: func(call int32) (kpi.Snapshot, error) {
		if call < 3 {
			return nil, serrors.NewAPIError("searchmetrics", http.StatusServiceUnavailable, "down")
		}
		return kpi.Snapshot{"clicks": 50.0}, nil
	}}
	c := newFastCached(inner, time.Minute)

	snap, err := c.Fetch(context.Background(), "/pricing")
	require.NoError(t, err)
	assert.Equal(t, 50.0, snap["clicks"])
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestCachedProvider_NoRetryOnPermanentFailure(t *testing.T) {
	inner := &scriptedProvider{fn: func(int32) (kpi.Snapshot, error) {
		return nil, serrors.NewAPIError("searchmetrics", http.StatusUnauthorized, "bad key")
	}}
	c := newFastCached(inner, time.Minute)

	_, err := c.Fetch(context.Background(), "/pricing")
	require.Error(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedProvider_FailuresNotCached(t *testing.T) {
	inner := &scriptedProvider{fn: func(call int32) (kpi.Snapshot, error) {
		if call == 1 {
			return nil, serrors.NewAPIError("searchmetrics", http.StatusBadRequest, "bad subject")
		}
		return kpi.Snapshot{"clicks": 10.0}, nil
	}}
	c := newFastCached(inner, time.Minute)

	_, err := c.Fetch(context.Background(), "/pricing")
	require.Error(t, err)

	snap, err := c.Fetch(context.Background(), "/pricing")
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap["clicks"])
}
