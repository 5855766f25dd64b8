// Package http provides the transport plumbing shared by the Langfuse API
// clients: the Doer abstraction, retry strategies, a circuit breaker,
// pagination helpers and request hooks.
package http

import (
	"context"
	"net/url"
)

// Doer is an interface for making HTTP requests against the Langfuse public API.
// Sub-clients depend on Doer rather than a concrete client so they can be
// exercised against any transport in tests.
type Doer interface {
	// Get performs an HTTP GET request and decodes the JSON response into result.
	Get(ctx context.Context, path string, query url.Values, result any) error

	// Post performs an HTTP POST request with a JSON body.
	Post(ctx context.Context, path string, body, result any) error

	// Patch performs an HTTP PATCH request with a JSON body.
	Patch(ctx context.Context, path string, body, result any) error
}

// JoinPath joins an endpoint with escaped path segments.
func JoinPath(endpoint string, segments ...string) string {
	p := endpoint
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}
