package client

import pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"

// Re-export error types from pkg/errors.
type (
	APIError        = pkgerrors.APIError
	ValidationError = pkgerrors.ValidationError
	LangfuseError   = pkgerrors.LangfuseError
	ErrorCode       = pkgerrors.ErrorCode
)

// Sentinel errors re-exported from pkg/errors.
var (
	ErrMissingBaseURL = pkgerrors.ErrMissingBaseURL
	ErrInvalidBaseURL = pkgerrors.ErrInvalidBaseURL
	ErrNotFound       = pkgerrors.ErrNotFound
	ErrUnauthorized   = pkgerrors.ErrUnauthorized
	ErrForbidden      = pkgerrors.ErrForbidden
	ErrRateLimited    = pkgerrors.ErrRateLimited
)
