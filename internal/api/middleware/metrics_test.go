package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/vindexhq/vindex/internal/api/middleware"
	"github.com/vindexhq/vindex/internal/metrics"
)

func serveOnce(method, path string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(mw.Metrics())
	e.Add(method, path, handler)

	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func counterValue(t *testing.T, method, path string, status int) float64 {
	t.Helper()
	counter, err := metrics.HTTPRequestsTotal.GetMetricWithLabelValues(
		method, path, strconv.Itoa(status),
	)
	require.NoError(t, err)

	m := &io_prometheus_client.Metric{}
	require.NoError(t, counter.Write(m))
	return m.GetCounter().GetValue()
}

func TestMetricsMiddleware_RecordsAPIRequests(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    echo.HandlerFunc
		wantStatus int
	}{
		{
			name:   "vehicle lookup",
			method: http.MethodGet,
			path:   "/api/v1/vehicles/abc",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"id": "abc"})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "listing ingestion",
			method: http.MethodPost,
			path:   "/api/v1/ingest",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusAccepted)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:   "not found",
			method: http.MethodGet,
			path:   "/api/v1/nope",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterValue(t, tt.method, tt.path, tt.wantStatus)

			rec := serveOnce(tt.method, tt.path, tt.handler)
			assert.Equal(t, tt.wantStatus, rec.Code)

			assert.Equal(t, before+1, counterValue(t, tt.method, tt.path, tt.wantStatus))

			observer, err := metrics.HTTPRequestDuration.GetMetricWithLabelValues(
				tt.method, tt.path, strconv.Itoa(tt.wantStatus),
			)
			require.NoError(t, err)

			hm := &io_prometheus_client.Metric{}
			require.NoError(t, observer.(prometheus.Metric).Write(hm))
			assert.Positive(t, hm.GetHistogram().GetSampleCount())
		})
	}
}

func TestMetricsMiddleware_HealthPathsSkipCounters(t *testing.T) {
	ok := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	rec := serveOnce(http.MethodGet, "/healthz", ok)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Probe traffic updates the up/down gauge instead of request counters.
	assert.Zero(t, counterValue(t, http.MethodGet, "/healthz", http.StatusOK))

	gm := &io_prometheus_client.Metric{}
	require.NoError(t, metrics.HealthzUp.Write(gm))
	assert.Equal(t, float64(1), gm.GetGauge().GetValue())
}

func TestMetricsMiddleware_FailedReadyzDropsGauge(t *testing.T) {
	failing := func(c echo.Context) error {
		return c.NoContent(http.StatusServiceUnavailable)
	}

	rec := serveOnce(http.MethodGet, "/readyz", failing)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	gm := &io_prometheus_client.Metric{}
	require.NoError(t, metrics.ReadyzUp.Write(gm))
	assert.Zero(t, gm.GetGauge().GetValue())
}
