// Package response writes the dashboard's JSON response envelope.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/airlens/airlens/internal/api/middleware"
)

// Envelope is the uniform body every endpoint returns. Success carries
// data and optionally cached/count; failure carries a message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Cached  *bool  `json:"cached,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// JSON writes an arbitrary envelope with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusOK, Envelope{Success: true, Data: data})
}

// OKCached writes a 200 success envelope flagging cache provenance.
func OKCached(w http.ResponseWriter, r *http.Request, data any, cached bool) {
	JSON(w, r, http.StatusOK, Envelope{Success: true, Data: data, Cached: &cached})
}

// OKCount writes a 200 success envelope with a result count.
func OKCount(w http.ResponseWriter, r *http.Request, data any, count int) {
	JSON(w, r, http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

// OKMessage writes a 200 envelope carrying only a message.
func OKMessage(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusOK, Envelope{Success: true, Message: message})
}

// BadRequest writes a 400 failure envelope.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusBadRequest, Envelope{Success: false, Message: message})
}

// Unauthorized writes a 401 failure envelope.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusUnauthorized, Envelope{Success: false, Message: message})
}

// Forbidden writes a 403 failure envelope.
func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusForbidden, Envelope{Success: false, Message: message})
}

// NotFound writes a 404 failure envelope.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusNotFound, Envelope{Success: false, Message: message})
}

// InternalError writes a 500 failure envelope.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusInternalServerError, Envelope{Success: false, Message: message})
}
