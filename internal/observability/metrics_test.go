package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordProvisionRunCountsByOutcome(t *testing.T) {
	m := NewMetrics()
	m.RecordProvisionRun("success")
	m.RecordProvisionRun("success")
	m.RecordProvisionRun("failure")

	require.Equal(t, float64(2), testutil.ToFloat64(m.provisionRuns.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.provisionRuns.WithLabelValues("failure")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() { m.RecordProvisionRun("success") })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
