package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/phillipkujawa/wemo-controller/internal/device"
	"github.com/phillipkujawa/wemo-controller/internal/govee"
	"github.com/phillipkujawa/wemo-controller/internal/wemo"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeUpstream   = "upstream_error"
	ErrCodeInternal   = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUpstream writes a 502 error response.
func writeUpstream(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadGateway, ErrCodeUpstream, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceError maps a service-layer error onto the HTTP taxonomy:
// unknown device keys are 404, invalid input is 400, cloud failures
// are 502 and everything else (local device failures included) is 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, wemo.ErrInvalidAction),
		errors.Is(err, wemo.ErrEmptyName),
		errors.Is(err, govee.ErrInvalidAction),
		errors.Is(err, govee.ErrInvalidKey):
		writeBadRequest(w, err.Error())
	case errors.Is(err, govee.ErrUpstream),
		errors.Is(err, govee.ErrMissingAPIKey):
		writeUpstream(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
