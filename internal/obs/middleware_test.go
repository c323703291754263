package obs_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("storefront", registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204"))
	require.Equal(t, float64(1), total)
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))
}

func TestRequestLoggerWritesRoute(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := obs.NewLogger("json", "debug", &buf)

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Get("/api/cart", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	out := buf.String()
	require.Contains(t, out, `"message":"http_request"`)
	require.Contains(t, out, `"route":"/api/cart"`)
	require.Contains(t, out, `"status":418`)
}

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := obs.NewLogger("json", "warn", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	fallback := obs.NewLogger("json", "nonsense", &buf)
	fallback.Debug().Msg("debug")
	fallback.Info().Msg("info")
	require.NotContains(t, buf.String(), `"level":"debug"`)
	require.Contains(t, buf.String(), `"message":"info"`)
}

func TestInitTracer(t *testing.T) {
	_, err := obs.InitTracer(context.Background(), obs.TracingConfig{Exporter: "zipkin"})
	require.Error(t, err)

	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{ServiceName: "storefront-test", Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
