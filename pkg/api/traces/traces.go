// Package traces provides the Langfuse Traces API client.
package traces

import (
	"context"

	"github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Endpoint for the traces API.
const Endpoint = "/traces"

// Client handles trace-related API operations.
type Client struct {
	http http.Doer
}

// New creates a new traces client with the given HTTP doer.
func New(doer http.Doer) *Client {
	return &Client{http: doer}
}

// Get retrieves a single trace, including its scores.
func (c *Client) Get(ctx context.Context, traceID string) (*types.Trace, error) {
	var result types.Trace
	if err := c.http.Get(ctx, http.JoinPath(Endpoint, traceID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
