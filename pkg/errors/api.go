package errors

import (
	"fmt"
	"net/http"
	"time"
)

// Sentinel APIError values for use with errors.Is().
// These match on status code only.
var (
	ErrNotFound     = &APIError{StatusCode: http.StatusNotFound}
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &APIError{StatusCode: http.StatusForbidden}
	ErrRateLimited  = &APIError{StatusCode: http.StatusTooManyRequests}
)

// APIError represents an error response from the Langfuse API.
// It supports error wrapping via Unwrap() and comparison via Is().
type APIError struct {
	StatusCode   int           `json:"statusCode"`
	Message      string        `json:"message"`
	ErrorMessage string        `json:"error"`
	Method       string        `json:"-"`
	Path         string        `json:"-"`
	RequestID    string        `json:"-"` // Request ID for debugging
	RetryAfter   time.Duration `json:"-"` // From Retry-After header
	Err          error         `json:"-"` // Underlying error for wrapping
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorMessage
	}

	where := ""
	if e.Method != "" && e.Path != "" {
		where = " " + e.Method + " " + e.Path
	}

	if msg != "" {
		if e.RequestID != "" {
			return fmt.Sprintf("langfuse: API error%s (status %d, request %s): %s", where, e.StatusCode, e.RequestID, msg)
		}
		return fmt.Sprintf("langfuse: API error%s (status %d): %s", where, e.StatusCode, msg)
	}

	if e.RequestID != "" {
		return fmt.Sprintf("langfuse: API error%s (status %d, request %s)", where, e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("langfuse: API error%s (status %d)", where, e.StatusCode)
}

// Unwrap returns the underlying error for error chain support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for errors.Is().
// It matches on status code, allowing comparisons like:
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// IsNotFound returns true if the error is a 404 Not Found error.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized error.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 Forbidden error.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsRateLimited returns true if the error is a 429 Too Many Requests error.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError returns true if the error is a 5xx server error.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// SuggestedRetryAfter returns the delay from the Retry-After header.
// It satisfies pkg/http.RetryAfterError.
func (e *APIError) SuggestedRetryAfter() time.Duration {
	return e.RetryAfter
}

// Code returns the error code for the API error.
func (e *APIError) Code() ErrorCode {
	switch {
	case e.IsUnauthorized(), e.IsForbidden():
		return ErrCodeAuth
	case e.IsRateLimited():
		return ErrCodeRateLimit
	default:
		return ErrCodeAPI
	}
}

// GetRequestID returns the request ID for the API error.
func (e *APIError) GetRequestID() string {
	return e.RequestID
}

var _ LangfuseError = (*APIError)(nil)
