// Package scoreconfigs provides the Langfuse Score Configs API client.
package scoreconfigs

import (
	"context"

	"github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Endpoint for the score configs API.
const Endpoint = "/score-configs"

// ListResponse is a page of score configs.
type ListResponse struct {
	Data []types.ScoreConfig `json:"data"`
	Meta http.MetaResponse   `json:"meta"`
}

// Client handles score config API operations.
type Client struct {
	http http.Doer
}

// New creates a new score configs client with the given HTTP doer.
func New(doer http.Doer) *Client {
	return &Client{http: doer}
}

// List retrieves a page of score configs.
func (c *Client) List(ctx context.Context, params *http.PaginationParams) (*ListResponse, error) {
	var result ListResponse
	if err := c.http.Get(ctx, Endpoint, params.ToQuery(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get retrieves a single score config by ID.
func (c *Client) Get(ctx context.Context, configID string) (*types.ScoreConfig, error) {
	var result types.ScoreConfig
	if err := c.http.Get(ctx, http.JoinPath(Endpoint, configID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
