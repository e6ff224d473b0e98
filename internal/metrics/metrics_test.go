package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordRequest("/api/v1/tasks", "201")
	m.RecordRequest("/api/v1/tasks", "201")
	m.RecordMeasurement("recorded")
	m.RecordMeasurement("deduplicated")
	m.RecordEvaluation("met")
	m.RecordError("dashboard", "build")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/v1/tasks", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MeasurementsTotal.WithLabelValues("recorded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MeasurementsTotal.WithLabelValues("deduplicated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("met")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("dashboard", "build")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordMeasurement("recorded")
	m.ObserveDashboardScan(0.012)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "seotrack_measurements_total")
	assert.Contains(t, body, "seotrack_dashboard_scan_duration_seconds")
}

func TestIsolatedRegistries(t *testing.T) {
	// Two instances must not collide: each carries its own registry
	a := New()
	b := New()
	a.RecordMeasurement("recorded")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.MeasurementsTotal.WithLabelValues("recorded")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.MeasurementsTotal.WithLabelValues("recorded")))
}
