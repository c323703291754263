package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/common"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) common.ErrorBody {
	t.Helper()
	var payload struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload.Error
}

func TestWriteErrorAppError(t *testing.T) {
	t.Parallel()

	cause := errors.New("cart is empty")
	err := common.NewAppError("EMPTY_CART", "your cart is empty", http.StatusConflict, cause)
	require.ErrorIs(t, err, cause)
	require.True(t, common.IsAppError(err))

	rr := httptest.NewRecorder()
	common.WriteError(rr, err)
	require.Equal(t, http.StatusConflict, rr.Code)
	body := decodeError(t, rr)
	require.Equal(t, "EMPTY_CART", body.Code)
	require.Equal(t, "your cart is empty", body.Message)
}

func TestWriteErrorUnknown(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	common.WriteError(rr, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "INTERNAL", decodeError(t, rr).Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestAtoi(t *testing.T) {
	t.Parallel()

	n, err := common.Atoi(" 3 ")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	_, err = common.Atoi("three")
	require.ErrorIs(t, err, common.ErrNotANumber)
	_, err = common.Atoi("")
	require.ErrorIs(t, err, common.ErrNotANumber)

	require.Equal(t, -1, common.AtoiDefault("x", -1))
	require.Equal(t, 5, common.AtoiDefault("5", -1))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		Position int `json:"position"`
	}
	require.NoError(t, common.DecodeJSON(strings.NewReader(`{"position":2}`), &payload))
	require.Equal(t, 2, payload.Position)

	for _, body := range []string{``, `{"position":`, `{"position":1} {"position":2}`} {
		err := common.DecodeJSON(strings.NewReader(body), &payload)
		require.ErrorIs(t, err, common.ErrBadPayload, body)

		rr := httptest.NewRecorder()
		common.WriteError(rr, err)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "BAD_REQUEST", decodeError(t, rr).Code)
	}
}

func TestDataEnvelope(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	common.Data(rr, http.StatusCreated, map[string]int{"quantity": 2})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.JSONEq(t, `{"data":{"quantity":2}}`, rr.Body.String())
}
