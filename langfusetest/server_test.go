package langfusetest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

func TestServer_QueueItemsPaginationAndStatus(t *testing.T) {
	c, server := NewTestClient(t)
	server.AddQueue(types.AnnotationQueue{ID: "q1", Name: "Support"})
	for i, status := range []types.QueueItemStatus{"", types.QueueItemStatusCompleted, "", ""} {
		server.AddItem(types.QueueItem{
			ID:         string(rune('a' + i)),
			QueueID:    "q1",
			ObjectID:   "t1",
			ObjectType: types.ObjectTypeTrace,
			Status:     status,
		})
	}

	all, err := c.AnnotationQueues().ListAllItems(context.Background(), "q1", "")
	if err != nil {
		t.Fatalf("ListAllItems() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("len(all) = %d, want 4", len(all))
	}

	pending, err := c.AnnotationQueues().ListAllItems(context.Background(), "q1", types.QueueItemStatusPending)
	if err != nil {
		t.Fatalf("ListAllItems(PENDING) error = %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("len(pending) = %d, want 3", len(pending))
	}
}

func TestServer_PatchCompletesItem(t *testing.T) {
	c, server := NewTestClient(t)
	server.AddItem(types.QueueItem{ID: "i1", QueueID: "q1", ObjectID: "t1", ObjectType: types.ObjectTypeTrace})

	item, err := c.UpdateItemStatus(context.Background(), "q1", "i1", types.QueueItemStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateItemStatus() error = %v", err)
	}
	if !item.IsCompleted() || item.CompletedAt == nil {
		t.Errorf("item = %+v, want completed with timestamp", item)
	}
	stored, _ := server.Item("q1", "i1")
	if !stored.IsCompleted() {
		t.Error("server item not completed")
	}
}

func TestServer_RejectsBadCredentials(t *testing.T) {
	server := NewServer()
	defer server.Close()

	cfg := Config(server)
	cfg.SecretKey = "sk-wrong"
	c, err := client.New(cfg, client.WithNoRetries())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Traces().Get(context.Background(), "t1")
	if !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestServer_IngestionAcceptsPublicKeyOnly(t *testing.T) {
	c, server := NewTestClient(t)

	q := c.ScoreQueue()
	_, _ = q.Enqueue(types.ScoreSubmission{Name: "quality", Value: 1, TraceID: "t1", ConfigID: "c1"})
	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	scores := server.Scores()
	if len(scores) != 1 || scores[0].Name != "quality" || scores[0].TraceID != "t1" {
		t.Errorf("scores = %+v", scores)
	}
	if len(server.Events()) != 1 {
		t.Errorf("events = %d, want 1", len(server.Events()))
	}
	reqs := server.Requests()
	if reqs[len(reqs)-1].Authorization != BasicAuth(TestPublicKey, "") {
		t.Errorf("Authorization = %q", reqs[len(reqs)-1].Authorization)
	}
}

func TestServer_RejectScores(t *testing.T) {
	c, server := NewTestClient(t)
	server.RejectScores(func(s types.ScoreSubmission) string {
		if s.Name == "bad" {
			return "config archived"
		}
		return ""
	})

	q := c.ScoreQueue()
	_, _ = q.Enqueue(types.ScoreSubmission{Name: "good", Value: 1, SessionID: "s1"})
	_, _ = q.Enqueue(types.ScoreSubmission{Name: "bad", Value: 1, SessionID: "s1"})

	var batchErr *pkgerrors.BatchError
	if err := q.Flush(context.Background()); !errors.As(err, &batchErr) {
		t.Fatalf("Flush() error = %v, want BatchError", err)
	}
	if len(server.Scores()) != 1 {
		t.Errorf("accepted scores = %d, want 1", len(server.Scores()))
	}
}

func TestServer_FailPath(t *testing.T) {
	c, server := NewTestClient(t)
	server.AddTrace(types.Trace{ID: "t1"})
	server.FailPath(http.MethodGet, "/traces/t1", http.StatusBadGateway)

	_, err := c.Traces().Get(context.Background(), "t1")
	apiErr, ok := pkgerrors.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("error = %v, want 502", err)
	}

	server.FailWhen(nil)
	if _, err := c.Traces().Get(context.Background(), "t1"); err != nil {
		t.Errorf("Get() after clearing failure error = %v", err)
	}
	if got := server.RequestCount(http.MethodGet, "/traces/t1"); got != 2 {
		t.Errorf("RequestCount() = %d, want 2", got)
	}
}

func TestServer_NotFound(t *testing.T) {
	c, _ := NewTestClient(t)

	if _, err := c.Sessions().Get(context.Background(), "nope"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Sessions().Get() error = %v, want ErrNotFound", err)
	}
	if _, err := c.ScoreConfigs().Get(context.Background(), "nope"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("ScoreConfigs().Get() error = %v, want ErrNotFound", err)
	}
}

func TestMockLogger(t *testing.T) {
	l := NewMockLogger()
	l.Info("hello", "k", "v")
	l.Warn("careful")

	if l.Count("") != 2 || l.Count("WARN") != 1 {
		t.Errorf("Count() = %d/%d", l.Count(""), l.Count("WARN"))
	}
	if !l.Contains("hell") {
		t.Error("Contains() = false")
	}
	if got := l.Entries()[0].String(); got != "INFO hello k=v" {
		t.Errorf("String() = %q", got)
	}
	l.Reset()
	if l.Count("") != 0 {
		t.Error("Reset() did not clear entries")
	}
}
