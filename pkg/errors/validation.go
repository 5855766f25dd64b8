package errors

// ValidationError reports a value that failed local checks before any
// request was made. Field names the offending field or score; Message is
// safe to show to the annotator.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Code always reports ErrCodeValidation.
func (e *ValidationError) Code() ErrorCode { return ErrCodeValidation }

// IsRetryable is false: the same input fails the same way.
func (e *ValidationError) IsRetryable() bool { return false }

// GetRequestID is empty since nothing reached the server.
func (e *ValidationError) GetRequestID() string { return "" }

var _ LangfuseError = (*ValidationError)(nil)

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithCause is NewValidationError with an underlying cause.
func NewValidationErrorWithCause(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: cause}
}
