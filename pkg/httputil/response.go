// Package httputil provides HTTP handler utilities for the uniform
// success/message response envelope, JSON decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ita004/analytics-engine/pkg/apperr"
)

// Envelope is the uniform response body for failures and data responses
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Cached  *bool             `json:"cached,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteData writes a {"success": true, "data": ...} envelope
func WriteData(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteCachedData writes a data envelope carrying the cached flag
func WriteCachedData(w http.ResponseWriter, data interface{}, cached bool) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Cached: &cached})
}

// WriteFailure writes a {"success": false, "message": ...} envelope
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// WriteAppError maps an application error onto the failure envelope.
// Cache errors never surface as 500: they are downgraded to misses before
// reaching a handler, so hitting one here is a programming error and is
// reported as a storage-class failure. Internal detail is exposed only when
// debug is set (non-production builds).
func WriteAppError(w http.ResponseWriter, err error, debug bool) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Storage(err)
	}

	env := Envelope{
		Success: false,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}
	if debug && appErr.Err != nil {
		env.Detail = appErr.Err.Error()
	}

	status := appErr.Status()
	if appErr.Kind == apperr.KindCache {
		status = http.StatusInternalServerError
	}

	WriteJSON(w, status, env)
}

// WriteUnauthenticated writes the deliberately undifferentiated 401 failure
func WriteUnauthenticated(w http.ResponseWriter) {
	WriteAppError(w, apperr.Unauthenticated(), false)
}

// WriteRateLimited writes the 429 failure with a Retry-After hint in seconds
func WriteRateLimited(w http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	WriteAppError(w, apperr.RateLimited(), false)
}
