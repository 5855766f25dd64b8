package annotation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

var (
	// ErrIncompleteScores is returned when a score config has no value.
	ErrIncompleteScores = errors.New("annotation: every score must be set before submitting")
	// ErrAlreadyCompleted is returned when the item was already annotated.
	ErrAlreadyCompleted = errors.New("annotation: item is already completed")
	// ErrNoItems is returned when the queue has no item to act on.
	ErrNoItems = errors.New("annotation: queue has no items")
)

// Stage names the step of a submission that failed.
type Stage string

const (
	StageEnqueue Stage = "enqueue"
	StageFlush   Stage = "flush"
	StageStatus  Stage = "status"
)

// SubmitError is a submission failure after validation passed.
type SubmitError struct {
	Stage Stage
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("annotation: submit failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// ScoreSink buffers scores and sends them in one batch.
// *ingestion.ScoreQueue satisfies it.
type ScoreSink interface {
	Enqueue(s types.ScoreSubmission) (string, error)
	Flush(ctx context.Context) error
}

// ItemUpdater changes the status of a queue item upstream.
type ItemUpdater interface {
	UpdateItemStatus(ctx context.Context, queueID, itemID string, status types.QueueItemStatus) (*types.QueueItem, error)
}

// SubmitRequest is one completed score entry for one item.
type SubmitRequest struct {
	QueueID string
	Item    types.QueueItem
	Entry   *ScoreEntry
}

// Submitter writes scores and completes queue items.
type Submitter struct {
	newSink func() ScoreSink
	items   ItemUpdater
	logger  logging.StructuredLogger
}

// NewSubmitter returns a Submitter. newSink is called once per submission so
// concurrent submissions never share a batch.
func NewSubmitter(newSink func() ScoreSink, items ItemUpdater, logger logging.StructuredLogger) *Submitter {
	return &Submitter{newSink: newSink, items: items, logger: logging.OrNop(logger)}
}

// Submit validates the entry, sends every score in one flush and marks the
// item COMPLETED. It returns the item as completed. No step is retried.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*types.QueueItem, error) {
	if req.Entry == nil {
		return nil, pkgerrors.ErrNilRequest
	}
	if req.Item.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	if missing := req.Entry.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, cfg := range missing {
			names[i] = cfg.Name
		}
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteScores, strings.Join(names, ", "))
	}

	scores, err := Resolve(req.QueueID, req.Item, req.Entry)
	if err != nil {
		return nil, err
	}

	sink := s.newSink()
	for _, score := range scores {
		if _, err := sink.Enqueue(score); err != nil {
			return nil, &SubmitError{Stage: StageEnqueue, Err: err}
		}
	}
	if err := sink.Flush(ctx); err != nil {
		s.logger.Error("score flush failed", "queue_id", req.QueueID, "item_id", req.Item.ID, "error", err)
		return nil, &SubmitError{Stage: StageFlush, Err: err}
	}

	updated, err := s.items.UpdateItemStatus(ctx, req.QueueID, req.Item.ID, types.QueueItemStatusCompleted)
	if err != nil {
		s.logger.Error("completing queue item failed", "queue_id", req.QueueID, "item_id", req.Item.ID, "error", err)
		return nil, &SubmitError{Stage: StageStatus, Err: err}
	}

	completed := req.Item
	completed.Status = types.QueueItemStatusCompleted
	completed.CompletedAt = types.TimePtr(types.Now().Time)
	if updated != nil && updated.CompletedAt != nil && !updated.CompletedAt.IsZero() {
		completed.CompletedAt = updated.CompletedAt
	}
	s.logger.Info("queue item scored", "queue_id", req.QueueID, "item_id", req.Item.ID, "scores", len(scores))
	return &completed, nil
}

// Resolve builds the score submissions for entry without side effects.
// Every score must resolve before any of them is sent.
func Resolve(queueID string, item types.QueueItem, entry *ScoreEntry) ([]types.ScoreSubmission, error) {
	scores := make([]types.ScoreSubmission, 0, len(entry.Configs()))
	for _, cfg := range entry.Configs() {
		value, ok := entry.Value(cfg.ID)
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteScores, cfg.Name)
		}
		score := types.ScoreSubmission{
			Name:     cfg.Name,
			Value:    value,
			DataType: cfg.DataType,
			Comment:  entry.Comment(),
			ConfigID: cfg.ID,
			QueueID:  queueID,
		}
		if cfg.DataType == types.ScoreDataTypeCategorical {
			label, err := categoryLabel(cfg, value)
			if err != nil {
				return nil, err
			}
			score.StringValue = label
		}
		switch item.ObjectType {
		case types.ObjectTypeTrace:
			score.TraceID = item.ObjectID
		case types.ObjectTypeSession:
			score.SessionID = item.ObjectID
		default:
			return nil, pkgerrors.NewValidationError("objectType", fmt.Sprintf("unsupported object type %q", item.ObjectType))
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// categoryLabel finds the label of the category whose value is v.
func categoryLabel(cfg types.ScoreConfig, v float64) (string, error) {
	if len(cfg.Categories) == 0 {
		return "", pkgerrors.NewValidationError(cfg.Name, "configuration error: no categories defined")
	}
	for idx, cat := range cfg.Categories {
		if categoryValue(cat, idx) == v {
			return cat.Label, nil
		}
	}
	return "", pkgerrors.NewValidationError(cfg.Name, fmt.Sprintf("invalid category value %s", formatValue(v)))
}
