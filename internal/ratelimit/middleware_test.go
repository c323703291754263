package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, time.Duration, int) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("store down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	t.Parallel()

	handler := ratelimit.Handler{
		Limiter: ratelimit.NewMemoryLimiter("test:"),
		Config:  ratelimit.Config{Window: time.Minute, Max: 1},
	}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	req.RemoteAddr = "10.0.0.1:4321"

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
	require.Contains(t, rr2.Body.String(), "RATE_LIMITED")

	other := req.Clone(req.Context())
	other.RemoteAddr = "10.0.0.2:1111"
	rr3 := httptest.NewRecorder()
	handler.ServeHTTP(rr3, other)
	require.Equal(t, http.StatusOK, rr3.Code, "keys are per host")
}

func TestMiddlewareOnError(t *testing.T) {
	t.Parallel()

	called := false
	handler := ratelimit.Handler{
		Limiter: failingLimiter{},
		Config:  ratelimit.Config{Window: time.Second, Max: 1},
		OnError: func(error) { called = true },
	}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestMiddlewareDisabled(t *testing.T) {
	t.Parallel()

	handler := ratelimit.Handler{Limiter: failingLimiter{}}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRemoteHost(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	require.Equal(t, "192.168.1.5", ratelimit.RemoteHost(req))
	req.RemoteAddr = "unix-socket"
	require.Equal(t, "unix-socket", ratelimit.RemoteHost(req))
}
