package osasdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedCallback is returned by HandleCallback when the redirect
	// fragment is missing a required field. Storage is never touched.
	ErrMalformedCallback = errors.New("osasdk: malformed auth callback")

	// ErrRefreshFailed is returned when a token refresh was rejected or could
	// not be completed. The stored session has already been cleared by the
	// time callers see this error.
	ErrRefreshFailed = errors.New("osasdk: token refresh failed")

	// ErrNotAuthenticated is returned when an operation requires a stored
	// session and none (or an unusable one) is present.
	ErrNotAuthenticated = errors.New("osasdk: not authenticated")

	// ErrInvalidResponse is returned when the archive answers 2xx with a body
	// that does not match the documented shape.
	ErrInvalidResponse = errors.New("osasdk: invalid server response")
)

// APIError is any non-2xx answer from the archive API, carrying the parsed
// error envelope. Code and Message are empty when the body was not the
// documented {"detail": {"code", "message"}} envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("osasdk: api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("osasdk: api error %d: %s", e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports whether err is the archive saying 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// parseAPIError turns a non-2xx response body into an *APIError. The archive
// wraps errors as {"detail": {"code", "message"}}; older endpoints sometimes
// emit a bare string detail, and proxies may emit no JSON at all. All three
// shapes collapse into the same type.
func parseAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return &APIError{Status: status}
	}

	var detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail.Code != "" {
		return &APIError{Status: status, Code: detail.Code, Message: detail.Message}
	}

	var plain string
	if err := json.Unmarshal(envelope.Detail, &plain); err == nil {
		return &APIError{Status: status, Message: plain}
	}

	return &APIError{Status: status}
}
