package annotation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jdziat/langfuse-annotator/pkg/api/annotationqueues"
	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/ingestion"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// summaryConcurrency bounds the per-queue item fetches of ListQueueSummaries.
const summaryConcurrency = 8

// Source is the read side of the upstream API used by the workflow.
type Source interface {
	ListQueues(ctx context.Context, page, limit int) ([]types.AnnotationQueue, error)
	GetQueue(ctx context.Context, queueID string) (*types.AnnotationQueue, error)
	ListItems(ctx context.Context, queueID string, status types.QueueItemStatus) ([]types.QueueItem, error)
	GetScoreConfig(ctx context.Context, configID string) (*types.ScoreConfig, error)
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)
	GetTrace(ctx context.Context, traceID string) (*types.Trace, error)
}

// Backend is everything the workflow needs from upstream.
type Backend interface {
	Source
	ItemUpdater
	NewScoreSink() ScoreSink
}

// ClientBackend adapts *client.Client to Backend.
type ClientBackend struct {
	client    *client.Client
	queueOpts []ingestion.QueueOption
}

var _ Backend = (*ClientBackend)(nil)

// NewClientBackend wraps c. opts apply to every score queue it creates.
func NewClientBackend(c *client.Client, opts ...ingestion.QueueOption) *ClientBackend {
	return &ClientBackend{client: c, queueOpts: opts}
}

func (b *ClientBackend) ListQueues(ctx context.Context, page, limit int) ([]types.AnnotationQueue, error) {
	resp, err := b.client.AnnotationQueues().List(ctx, &pkghttp.PaginationParams{Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (b *ClientBackend) GetQueue(ctx context.Context, queueID string) (*types.AnnotationQueue, error) {
	return b.client.AnnotationQueues().Get(ctx, queueID)
}

func (b *ClientBackend) ListItems(ctx context.Context, queueID string, status types.QueueItemStatus) ([]types.QueueItem, error) {
	return b.client.AnnotationQueues().ListAllItems(ctx, queueID, status)
}

func (b *ClientBackend) GetScoreConfig(ctx context.Context, configID string) (*types.ScoreConfig, error) {
	return b.client.ScoreConfigs().Get(ctx, configID)
}

func (b *ClientBackend) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	return b.client.Sessions().Get(ctx, sessionID)
}

func (b *ClientBackend) GetTrace(ctx context.Context, traceID string) (*types.Trace, error) {
	return b.client.Traces().Get(ctx, traceID)
}

func (b *ClientBackend) UpdateItemStatus(ctx context.Context, queueID, itemID string, status types.QueueItemStatus) (*types.QueueItem, error) {
	return b.client.UpdateItemStatus(ctx, queueID, itemID, status)
}

// NewScoreSink returns a fresh public-key score queue.
func (b *ClientBackend) NewScoreSink() ScoreSink {
	return b.client.ScoreQueue(b.queueOpts...)
}

// ListQueueSummaries lists the first page of queues and derives the item
// counts of each concurrently. A queue whose items cannot be fetched is
// reported with zero counts; only a failed queue listing is an error.
func ListQueueSummaries(ctx context.Context, src Source, logger logging.StructuredLogger) ([]types.QueueSummary, error) {
	logger = logging.OrNop(logger)
	queues, err := src.ListQueues(ctx, 1, annotationqueues.MaxPageSize)
	if err != nil {
		return nil, err
	}

	summaries := make([]types.QueueSummary, len(queues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, q := range queues {
		g.Go(func() error {
			items, err := src.ListItems(gctx, q.ID, "")
			if err != nil {
				logger.Warn("counting queue items failed", "queue_id", q.ID, "error", err)
			}
			summaries[i] = types.Summarize(q, items)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// QueueSummary fetches one queue and derives its item counts.
func QueueSummary(ctx context.Context, src Source, queueID string) (*types.QueueSummary, error) {
	var (
		queue *types.AnnotationQueue
		items []types.QueueItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		queue, err = src.GetQueue(gctx, queueID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = src.ListItems(gctx, queueID, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary := types.Summarize(*queue, items)
	return &summary, nil
}
