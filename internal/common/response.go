package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrBadPayload is returned by DecodeJSON when the body is not a single JSON value.
var ErrBadPayload = errors.New("invalid JSON payload")

// ErrorBody is the payload under the "error" key of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v wrapped as {"data": v}.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, struct {
		Data any `json:"data"`
	}{Data: v})
}

// JSONError writes {"error": {...}} with the given status.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, struct {
		Error ErrorBody `json:"error"`
	}{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// DecodeJSON reads exactly one JSON value from r into dst. Failures wrap
// ErrBadPayload and map to a 400 BAD_REQUEST AppError.
func DecodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		return NewAppError("BAD_REQUEST", ErrBadPayload.Error(), http.StatusBadRequest, fmt.Errorf("%w: %v", ErrBadPayload, err))
	}
	if dec.More() {
		return NewAppError("BAD_REQUEST", ErrBadPayload.Error(), http.StatusBadRequest, fmt.Errorf("%w: trailing data", ErrBadPayload))
	}
	return nil
}
