// Package searchmetrics defines the interface to the external
// search-performance metrics source. Fetching is plain I/O; all retry,
// caching and timeout policy lives in the decorators here, never in the
// tracking core.
package searchmetrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/kpi"
)

// Provider fetches the current metrics snapshot for a subject (a page URL
// or a keyword).
type Provider interface {
	Fetch(ctx context.Context, subject string) (kpi.Snapshot, error)
}

// HTTPProvider talks to a metrics endpoint that answers
// GET {base}/metrics?subject=... with a JSON object of metric fields.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates an HTTP-backed metrics provider.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the subject's snapshot. Non-2xx responses surface as
// APIError so the retry decorator can classify them.
func (p *HTTPProvider) Fetch(ctx context.Context, subject string) (kpi.Snapshot, error) {
	u := fmt.Sprintf("%s/metrics?subject=%s", p.baseURL, url.QueryEscape(subject))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build metrics request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, serrors.NewAPIError("searchmetrics", resp.StatusCode, string(body))
	}

	var snap kpi.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode metrics response: %w", err)
	}
	return snap, nil
}
