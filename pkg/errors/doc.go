// Package errors provides error types shared by the upstream client and the
// annotation service.
//
// The package defines:
//   - APIError: errors returned by the Langfuse API with HTTP status codes
//   - ValidationError: local validation failures (bad requests, unresolvable
//     score values, incomplete score sets)
//   - BatchError: per-event failures reported by a score ingestion flush
//
// All of them implement the LangfuseError interface:
//
//	var lfErr errors.LangfuseError
//	if stdErrors.As(err, &lfErr) {
//	    log.Printf("code=%s retryable=%v", lfErr.Code(), lfErr.IsRetryable())
//	}
//
// Sentinel APIError values match on status code only:
//
//	if stdErrors.Is(err, errors.ErrNotFound) {
//	    // the queue item vanished upstream
//	}
package errors
