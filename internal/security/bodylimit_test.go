package security_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/security"
)

func echoBody(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		*captured = string(data)
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	t.Parallel()

	var captured string
	handler := security.BodyLimit{Max: 32}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"position":1,"quantity":2}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"position":1,"quantity":2}`, captured)
}

func TestBodyLimitRejectsOversizedStream(t *testing.T) {
	t.Parallel()

	var captured string
	handler := security.BodyLimit{Max: 5}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader("excessive"))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
	require.Empty(t, captured)
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	t.Parallel()

	var captured string
	handler := security.BodyLimit{Max: 5}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader("ok"))
	req.ContentLength = 100
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestBodyLimitDisabled(t *testing.T) {
	t.Parallel()

	var captured string
	handler := security.BodyLimit{}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(strings.Repeat("x", 1024)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, captured, 1024)
}
