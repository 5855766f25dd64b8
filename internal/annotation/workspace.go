package annotation

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jdziat/langfuse-annotator/pkg/logging"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Detail is the content shown for the current item.
type Detail struct {
	ItemID   string        `json:"itemId"`
	Messages []ChatMessage `json:"messages"`
	Scores   []types.Score `json:"scores"`
}

// Workspace is an annotation session over one queue. The current item is
// always derived from its Location.
type Workspace struct {
	queueID   string
	src       Source
	submitter *Submitter
	loc       Location
	logger    logging.StructuredLogger

	mu      sync.Mutex
	state   State
	queue   *types.AnnotationQueue
	items   []types.QueueItem
	configs []types.ScoreConfig
	entry   *ScoreEntry
	detail  Detail
	epoch   uint64
}

// NewWorkspace returns a workspace for queueID in the loading state.
func NewWorkspace(queueID string, backend Backend, loc Location, logger logging.StructuredLogger) *Workspace {
	logger = logging.OrNop(logger)
	return &Workspace{
		queueID:   queueID,
		src:       backend,
		submitter: NewSubmitter(backend.NewScoreSink, backend, logger),
		loc:       loc,
		logger:    logger,
		state:     StateLoading,
	}
}

// QueueID returns the queue the workspace annotates.
func (w *Workspace) QueueID() string { return w.queueID }

// Location returns the workspace's location.
func (w *Workspace) Location() Location { return w.loc }

// State returns the current lifecycle phase.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Open loads the queue and the detail of the current item.
func (w *Workspace) Open(ctx context.Context) error {
	if err := w.Load(ctx); err != nil {
		return err
	}
	w.Sync(ctx)
	return ctx.Err()
}

// Load fetches the queue, its items and its score configs. Failed reads are
// logged and leave the corresponding data empty. When the location addresses
// no item and the queue has items, the location is replaced with the first.
func (w *Workspace) Load(ctx context.Context) error {
	var (
		queue *types.AnnotationQueue
		items []types.QueueItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := w.src.GetQueue(gctx, w.queueID)
		if err != nil {
			w.logger.Warn("fetching queue failed", "queue_id", w.queueID, "error", err)
			return nil
		}
		queue = q
		return nil
	})
	g.Go(func() error {
		list, err := w.src.ListItems(gctx, w.queueID, "")
		if err != nil {
			w.logger.Warn("fetching queue items failed", "queue_id", w.queueID, "error", err)
			return nil
		}
		items = list
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	var configs []types.ScoreConfig
	if queue != nil {
		configs = w.fetchConfigs(ctx, queue.ScoreConfigIDs)
	}

	w.mu.Lock()
	w.queue = queue
	w.items = items
	w.configs = configs
	w.entry = nil
	w.state = StateReady
	w.mu.Unlock()

	if w.loc.ItemID() == "" && len(items) > 0 {
		w.loc.Replace(items[0].ID)
	}
	w.logger.Debug("queue loaded", "queue_id", w.queueID, "items", len(items), "score_configs", len(configs))
	return nil
}

// fetchConfigs fetches every config concurrently, keeping the order of ids
// and dropping the ones that fail.
func (w *Workspace) fetchConfigs(ctx context.Context, ids []string) []types.ScoreConfig {
	fetched := make([]*types.ScoreConfig, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			cfg, err := w.src.GetScoreConfig(ctx, id)
			if err != nil {
				w.logger.Warn("fetching score config failed", "config_id", id, "error", err)
				return nil
			}
			fetched[i] = cfg
			return nil
		})
	}
	_ = g.Wait()

	configs := make([]types.ScoreConfig, 0, len(ids))
	for _, cfg := range fetched {
		if cfg != nil {
			configs = append(configs, *cfg)
		}
	}
	return configs
}

// Sync fetches the detail of the item addressed by the location. It reports
// whether its result was applied; a Sync superseded by a later one while
// fetching is discarded.
func (w *Workspace) Sync(ctx context.Context) bool {
	w.mu.Lock()
	w.epoch++
	epoch := w.epoch
	if len(w.items) == 0 {
		w.detail = Detail{}
		w.state = StateReady
		w.mu.Unlock()
		return true
	}
	item := w.items[CurrentIndex(w.items, w.loc.ItemID())]
	w.ensureEntryLocked(item.ID)
	w.state = StateItemLoading
	w.mu.Unlock()

	detail := w.fetchDetail(ctx, item)

	w.mu.Lock()
	defer w.mu.Unlock()
	if epoch != w.epoch {
		w.logger.Debug("discarding superseded item detail", "item_id", item.ID)
		return false
	}
	w.detail = detail
	w.state = StateItemReady
	return true
}

func (w *Workspace) fetchDetail(ctx context.Context, item types.QueueItem) Detail {
	detail := Detail{ItemID: item.ID, Messages: []ChatMessage{}, Scores: []types.Score{}}
	switch item.ObjectType {
	case types.ObjectTypeSession:
		session, err := w.src.GetSession(ctx, item.ObjectID)
		if err != nil {
			w.logger.Warn("fetching session failed", "session_id", item.ObjectID, "error", err)
			return detail
		}
		w.noteUndated(item.ID, session.Traces)
		detail.Messages, detail.Scores = NormalizeAll(session.Traces)
	case types.ObjectTypeTrace:
		trace, err := w.src.GetTrace(ctx, item.ObjectID)
		if err != nil {
			w.logger.Warn("fetching trace failed", "trace_id", item.ObjectID, "error", err)
			return detail
		}
		w.noteUndated(item.ID, []types.Trace{*trace})
		detail.Messages, detail.Scores = NormalizeAll([]types.Trace{*trace})
	default:
		w.logger.Warn("unsupported queue item object type", "item_id", item.ID, "object_type", item.ObjectType)
	}
	return detail
}

// noteUndated logs traces whose timestamp was missing or unreadable. Their
// messages keep their place in trace order.
func (w *Workspace) noteUndated(itemID string, traces []types.Trace) {
	for _, tr := range traces {
		if tr.Timestamp.IsZero() {
			w.logger.Debug("trace has no usable timestamp", "item_id", itemID, "trace_id", tr.ID)
		}
	}
}

// ensureEntryLocked replaces the score entry when the item changed.
func (w *Workspace) ensureEntryLocked(itemID string) *ScoreEntry {
	if w.entry == nil || w.entry.ItemID() != itemID {
		w.entry = NewScoreEntry(itemID, w.configs)
	}
	return w.entry
}

// currentLocked returns the current item, if any.
func (w *Workspace) currentLocked() (int, types.QueueItem, bool) {
	if len(w.items) == 0 {
		return 0, types.QueueItem{}, false
	}
	idx := CurrentIndex(w.items, w.loc.ItemID())
	return idx, w.items[idx], true
}

// Next moves to the following item. It reports false at the end of the queue.
func (w *Workspace) Next(ctx context.Context) bool {
	return w.move(ctx, 1)
}

// Prev moves to the preceding item. It reports false at the start of the queue.
func (w *Workspace) Prev(ctx context.Context) bool {
	return w.move(ctx, -1)
}

func (w *Workspace) move(ctx context.Context, offset int) bool {
	w.mu.Lock()
	idx, _, ok := w.currentLocked()
	target := idx + offset
	if !ok || target < 0 || target >= len(w.items) {
		w.mu.Unlock()
		return false
	}
	id := w.items[target].ID
	w.mu.Unlock()

	w.loc.Push(id)
	w.Sync(ctx)
	return true
}

// Select records a score value for the current item.
func (w *Workspace) Select(configID string, value float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, item, ok := w.currentLocked()
	if !ok {
		return false
	}
	return w.ensureEntryLocked(item.ID).Select(configID, value)
}

// SetComment sets the comment for the current item.
func (w *Workspace) SetComment(comment string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, item, ok := w.currentLocked(); ok {
		w.ensureEntryLocked(item.ID).SetComment(comment)
	}
}

// Config returns the score config with the given id, or with a name equal
// to idOrName under case folding.
func (w *Workspace) Config(idOrName string) (types.ScoreConfig, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, cfg := range w.configs {
		if cfg.ID == idOrName || strings.EqualFold(cfg.Name, idOrName) {
			return cfg, true
		}
	}
	return types.ScoreConfig{}, false
}

// SubmitResult is the outcome of a successful Workspace.Submit.
type SubmitResult struct {
	Item       types.QueueItem `json:"item"`
	NextItemID string          `json:"nextItemId,omitempty"`
}

// Submit submits the current entry. On success the item is marked completed
// in memory and the workspace advances when a next item exists.
func (w *Workspace) Submit(ctx context.Context) (*SubmitResult, error) {
	w.mu.Lock()
	_, item, ok := w.currentLocked()
	if !ok {
		w.mu.Unlock()
		return nil, ErrNoItems
	}
	entry := w.ensureEntryLocked(item.ID)
	w.mu.Unlock()

	completed, err := w.submitter.Submit(ctx, SubmitRequest{QueueID: w.queueID, Item: item, Entry: entry})
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if i := slices.IndexFunc(w.items, func(it types.QueueItem) bool { return it.ID == completed.ID }); i >= 0 {
		w.items[i] = *completed
	}
	w.mu.Unlock()

	result := &SubmitResult{Item: *completed}
	if w.Next(ctx) {
		result.NextItemID = w.loc.ItemID()
	}
	return result, nil
}
