package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

// APIError is an error response from the auth service. The server writes it
// with WriteError and the client parses it back from the response body.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"status"`

	// Reason is the HTTP reason phrase, e.g. "Unauthorized"
	Reason string `json:"error"`

	// Message is a human-readable description, safe to show to users
	Message string `json:"message"`

	// Timestamp is when the server produced the error
	Timestamp time.Time `json:"timestamp"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Reason, e.Message)
}

// Is matches on status and message so callers can compare a parsed response
// with the predefined errors using errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

// WriteError writes this error as the standard error body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Message)
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Reason:     http.StatusText(statusCode),
		Message:    message,
	}
}

var (
	// ErrInvalidRequest is returned for bodies that are not valid JSON or
	// carry unknown fields.
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, "The request body is malformed")

	// ErrInvalidCredentials is returned for an unknown username and for a
	// wrong password alike.
	ErrInvalidCredentials = NewAPIError(http.StatusUnauthorized, "Invalid username or password")

	// ErrUnauthorized is returned by protected routes without a valid token.
	ErrUnauthorized = NewAPIError(http.StatusUnauthorized, "Full authentication is required to access this resource")

	ErrUsernameTaken = NewAPIError(http.StatusConflict, "Username already exists")

	// ErrTooManyAttempts is returned while a username is locked out after
	// repeated failed logins.
	ErrTooManyAttempts = NewAPIError(http.StatusTooManyRequests, "Too many failed login attempts, try again later")

	ErrServerError = NewAPIError(http.StatusInternalServerError, "An unexpected error occurred")
)

// parseErrorResponse turns a non-success response into an *APIError, falling
// back to the status line when the body is not the standard error shape.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = resp.StatusCode
		}
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
