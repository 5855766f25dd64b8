package annotationqueues

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

type call struct {
	method string
	path   string
	query  url.Values
	body   any
}

// fakeDoer answers requests from a per-call responder and records them.
type fakeDoer struct {
	calls   []call
	respond func(c call) (any, error)
}

func (f *fakeDoer) do(c call, result any) error {
	f.calls = append(f.calls, c)
	resp, err := f.respond(c)
	if err != nil {
		return err
	}
	data, _ := json.Marshal(resp)
	return json.Unmarshal(data, result)
}

func (f *fakeDoer) Get(_ context.Context, path string, query url.Values, result any) error {
	return f.do(call{method: "GET", path: path, query: query}, result)
}

func (f *fakeDoer) Post(_ context.Context, path string, body, result any) error {
	return f.do(call{method: "POST", path: path, body: body}, result)
}

func (f *fakeDoer) Patch(_ context.Context, path string, body, result any) error {
	return f.do(call{method: "PATCH", path: path, body: body}, result)
}

var _ http.Doer = (*fakeDoer)(nil)

func TestListAllItems_FollowsPagination(t *testing.T) {
	doer := &fakeDoer{respond: func(c call) (any, error) {
		page := c.query.Get("page")
		switch page {
		case "1":
			return ItemsResponse{
				Data: []types.QueueItem{{ID: "i1"}, {ID: "i2"}},
				Meta: http.MetaResponse{Page: 1, TotalPages: 2},
			}, nil
		case "2":
			return ItemsResponse{
				Data: []types.QueueItem{{ID: "i3"}},
				Meta: http.MetaResponse{Page: 2, TotalPages: 2},
			}, nil
		}
		return nil, errors.New("unexpected page " + page)
	}}

	items, err := New(doer).ListAllItems(context.Background(), "q1", types.QueueItemStatusPending)
	if err != nil {
		t.Fatalf("ListAllItems() error = %v", err)
	}
	if len(items) != 3 || items[2].ID != "i3" {
		t.Errorf("ListAllItems() = %+v, want 3 items ending in i3", items)
	}
	if len(doer.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(doer.calls))
	}
	first := doer.calls[0]
	if first.path != "/annotation-queues/q1/items" {
		t.Errorf("path = %q", first.path)
	}
	if first.query.Get("status") != "PENDING" || first.query.Get("limit") != "100" {
		t.Errorf("query = %v, want status=PENDING limit=100", first.query)
	}
}

func TestListAllItems_Error(t *testing.T) {
	boom := errors.New("boom")
	doer := &fakeDoer{respond: func(call) (any, error) { return nil, boom }}

	if _, err := New(doer).ListAllItems(context.Background(), "q1", ""); !errors.Is(err, boom) {
		t.Errorf("ListAllItems() error = %v, want boom", err)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	doer := &fakeDoer{respond: func(c call) (any, error) {
		return types.QueueItem{ID: "i1", Status: types.QueueItemStatusCompleted}, nil
	}}

	item, err := New(doer).UpdateItemStatus(context.Background(), "q1", "i1", types.QueueItemStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateItemStatus() error = %v", err)
	}
	if !item.IsCompleted() {
		t.Errorf("item status = %v, want COMPLETED", item.Status)
	}

	c := doer.calls[0]
	if c.method != "PATCH" || c.path != "/annotation-queues/q1/items/i1" {
		t.Errorf("call = %s %s", c.method, c.path)
	}
	req, ok := c.body.(*UpdateItemRequest)
	if !ok || req.Status != types.QueueItemStatusCompleted {
		t.Errorf("body = %#v, want status COMPLETED", c.body)
	}
}
