package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorDetail is the body of every non-2xx archive response, wrapped in a
// "detail" envelope: {"detail": {"code": "...", "message": "..."}}.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Detail ErrorDetail `json:"detail"`
}

// WriteJSON writes a JSON response with the given status code.
// It sets Content-Type and no-store cache headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the archive error envelope with a short machine-readable
// code and a human-readable message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Detail: ErrorDetail{Code: code, Message: message}})
}

// WriteFieldError is WriteError with the offending field named, used for
// validation failures.
func WriteFieldError(w http.ResponseWriter, status int, code, message, field string) {
	WriteJSON(w, status, errorEnvelope{Detail: ErrorDetail{Code: code, Message: message, Field: field}})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for token responses, harmless everywhere else.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
