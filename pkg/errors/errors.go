package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for metrics and logging.
type ErrorCode string

// Error codes for categorization.
const (
	ErrCodeConfig     ErrorCode = "CONFIG"     // Configuration errors
	ErrCodeValidation ErrorCode = "VALIDATION" // Request validation errors
	ErrCodeNetwork    ErrorCode = "NETWORK"    // Network/connection errors
	ErrCodeAPI        ErrorCode = "API"        // API response errors
	ErrCodeAuth       ErrorCode = "AUTH"       // Authentication/authorization errors
	ErrCodeRateLimit  ErrorCode = "RATE_LIMIT" // Rate limiting errors
	ErrCodeIngestion  ErrorCode = "INGESTION"  // Score ingestion errors
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Internal errors
)

// LangfuseError is the common interface for errors raised by this module.
type LangfuseError interface {
	error

	// Code returns a machine-readable error code for categorization.
	Code() ErrorCode

	// IsRetryable returns true if the operation can be retried.
	IsRetryable() bool

	// GetRequestID returns the server request ID, if available.
	GetRequestID() string
}

// Sentinel errors.
var (
	ErrMissingBaseURL = errors.New("langfuse: base URL is required")
	ErrInvalidBaseURL = errors.New("langfuse: base URL is invalid")
	ErrNilRequest     = errors.New("langfuse: request cannot be nil")
	ErrEmptyBatch     = errors.New("langfuse: batch is empty")
)

// IsRetryable returns true if the error represents a retryable condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var lfErr LangfuseError
	if errors.As(err, &lfErr) {
		return lfErr.IsRetryable()
	}
	return false
}

// CodeOf returns the ErrorCode of err, or ErrCodeInternal when err carries none.
func CodeOf(err error) ErrorCode {
	var lfErr LangfuseError
	if errors.As(err, &lfErr) {
		return lfErr.Code()
	}
	return ErrCodeInternal
}

// AsAPIError extracts an APIError from the error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// AsValidationError extracts a ValidationError from the error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr, true
	}
	return nil, false
}

// IngestionFailure is a single rejected event of an ingestion batch.
type IngestionFailure struct {
	ID           string `json:"id"`
	Status       int    `json:"status"`
	Message      string `json:"message"`
	ErrorMessage string `json:"error"`
}

func (f IngestionFailure) text() string {
	if f.Message != "" {
		return f.Message
	}
	return f.ErrorMessage
}

// BatchError reports events rejected by an otherwise successful ingestion request.
type BatchError struct {
	Failures []IngestionFailure
	Total    int
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("langfuse: ingestion rejected event %s (status %d): %s", f.ID, f.Status, f.text())
	}
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.ID, f.text()))
	}
	return fmt.Sprintf("langfuse: ingestion rejected %d of %d events: %s",
		len(e.Failures), e.Total, strings.Join(msgs, "; "))
}

// Code implements LangfuseError.
func (e *BatchError) Code() ErrorCode { return ErrCodeIngestion }

// IsRetryable reports whether every rejected event failed with a server-side status.
func (e *BatchError) IsRetryable() bool {
	for _, f := range e.Failures {
		if f.Status < 500 {
			return false
		}
	}
	return len(e.Failures) > 0
}

// GetRequestID implements LangfuseError.
func (e *BatchError) GetRequestID() string { return "" }

var _ LangfuseError = (*BatchError)(nil)
