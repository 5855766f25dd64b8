// Package sessions provides the Langfuse Sessions API client.
package sessions

import (
	"context"

	"github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Endpoint for the sessions API.
const Endpoint = "/sessions"

// Client handles session-related API operations.
type Client struct {
	http http.Doer
}

// New creates a new sessions client with the given HTTP doer.
func New(doer http.Doer) *Client {
	return &Client{http: doer}
}

// Get retrieves a single session with its traces.
func (c *Client) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	var result types.Session
	if err := c.http.Get(ctx, http.JoinPath(Endpoint, sessionID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
