// Package annotationqueues provides the Langfuse Annotation Queues API client.
package annotationqueues

import (
	"context"
	"net/url"

	"github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Endpoint for the annotation queues API.
const Endpoint = "/annotation-queues"

// MaxPageSize is the largest page the API serves.
const MaxPageSize = 100

// ListResponse is a page of annotation queues.
type ListResponse struct {
	Data []types.AnnotationQueue `json:"data"`
	Meta http.MetaResponse       `json:"meta"`
}

// ItemsResponse is a page of queue items.
type ItemsResponse struct {
	Data []types.QueueItem `json:"data"`
	Meta http.MetaResponse `json:"meta"`
}

// ItemsParams filters an items listing.
type ItemsParams struct {
	http.PaginationParams
	// Status restricts the listing to one status when set.
	Status types.QueueItemStatus
}

// ToQuery converts the parameters to URL query values.
func (p *ItemsParams) ToQuery() url.Values {
	if p == nil {
		return url.Values{}
	}
	q := p.PaginationParams.ToQuery()
	if p.Status != "" {
		q.Set("status", p.Status.String())
	}
	return q
}

// UpdateItemRequest is the body of an item status update.
type UpdateItemRequest struct {
	Status types.QueueItemStatus `json:"status"`
}

// Client handles annotation queue API operations.
type Client struct {
	http http.Doer
}

// New creates a new annotation queues client with the given HTTP doer.
func New(doer http.Doer) *Client {
	return &Client{http: doer}
}

// List retrieves a page of annotation queues.
func (c *Client) List(ctx context.Context, params *http.PaginationParams) (*ListResponse, error) {
	var result ListResponse
	if err := c.http.Get(ctx, Endpoint, params.ToQuery(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get retrieves a single annotation queue by ID.
func (c *Client) Get(ctx context.Context, queueID string) (*types.AnnotationQueue, error) {
	var result types.AnnotationQueue
	if err := c.http.Get(ctx, http.JoinPath(Endpoint, queueID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListItems retrieves one page of a queue's items.
func (c *Client) ListItems(ctx context.Context, queueID string, params *ItemsParams) (*ItemsResponse, error) {
	var result ItemsResponse
	if err := c.http.Get(ctx, http.JoinPath(Endpoint, queueID, "items"), params.ToQuery(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllItems follows pagination until every item of the queue is fetched.
// Items are returned in the order the API serves them.
func (c *Client) ListAllItems(ctx context.Context, queueID string, status types.QueueItemStatus) ([]types.QueueItem, error) {
	params := &ItemsParams{
		PaginationParams: http.PaginationParams{Page: 1, Limit: MaxPageSize},
		Status:           status,
	}

	var items []types.QueueItem
	for {
		page, err := c.ListItems(ctx, queueID, params)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Data...)
		if !page.Meta.HasMore() || len(page.Data) == 0 {
			return items, nil
		}
		params.Page++
	}
}

// UpdateItem applies a partial update to a queue item.
func (c *Client) UpdateItem(ctx context.Context, queueID, itemID string, body any) (*types.QueueItem, error) {
	var result types.QueueItem
	if err := c.http.Patch(ctx, http.JoinPath(Endpoint, queueID, "items", itemID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateItemStatus sets the status of a queue item.
func (c *Client) UpdateItemStatus(ctx context.Context, queueID, itemID string, status types.QueueItemStatus) (*types.QueueItem, error) {
	return c.UpdateItem(ctx, queueID, itemID, &UpdateItemRequest{Status: status})
}
