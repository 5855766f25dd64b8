package ingestion

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// FlushResult describes one flushed batch.
type FlushResult struct {
	EventCount int
	Successes  int
	Errors     int
	Duration   time.Duration
	Err        error
}

// ScoreQueue buffers score-create events until Flush.
//
// Enqueue never touches the network. Flush takes the whole pending batch
// atomically and sends it as one request; a failed batch is not re-queued,
// so callers decide whether to enqueue again.
type ScoreQueue struct {
	doer      pkghttp.Doer
	onFlushed func(FlushResult)
	newID     func() string
	now       func() time.Time

	mu      sync.Mutex
	pending []Event
}

// QueueOption configures a ScoreQueue.
type QueueOption func(*ScoreQueue)

// WithOnFlushed registers a callback invoked after every non-empty flush.
func WithOnFlushed(fn func(FlushResult)) QueueOption {
	return func(q *ScoreQueue) {
		q.onFlushed = fn
	}
}

// WithIDGenerator overrides the event id generator.
func WithIDGenerator(fn func() string) QueueOption {
	return func(q *ScoreQueue) {
		q.newID = fn
	}
}

// NewScoreQueue creates a queue that flushes through doer.
func NewScoreQueue(doer pkghttp.Doer, opts ...QueueOption) *ScoreQueue {
	q := &ScoreQueue{
		doer:  doer,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Validate checks a submission before it is queued.
func Validate(s *types.ScoreSubmission) error {
	if s == nil {
		return pkgerrors.ErrNilRequest
	}
	if s.Name == "" {
		return pkgerrors.NewValidationError("name", "score name is required")
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return pkgerrors.NewValidationError("value", fmt.Sprintf("score %q must be a finite number", s.Name))
	}
	if (s.TraceID == "") == (s.SessionID == "") {
		return pkgerrors.NewValidationError("traceId", fmt.Sprintf("score %q must reference exactly one of trace or session", s.Name))
	}
	return nil
}

// Enqueue validates s and appends it as a score-create event.
// It returns the id assigned to the score body.
func (q *ScoreQueue) Enqueue(s types.ScoreSubmission) (string, error) {
	if err := Validate(&s); err != nil {
		return "", err
	}
	if s.ID == "" {
		s.ID = q.newID()
	}

	event := Event{
		ID:        q.newID(),
		Type:      EventTypeScoreCreate,
		Timestamp: types.Time{Time: q.now().UTC()},
		Body:      s,
	}

	q.mu.Lock()
	q.pending = append(q.pending, event)
	q.mu.Unlock()
	return s.ID, nil
}

// Pending returns the number of queued events.
func (q *ScoreQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush sends every pending event as one batch. An empty queue sends nothing.
// Events the API rejects individually are reported as *errors.BatchError.
func (q *ScoreQueue) Flush(ctx context.Context) error {
	events := q.take()
	if len(events) == 0 {
		return nil
	}

	start := q.now()
	var result Result
	err := q.doer.Post(ctx, Endpoint, &Request{Batch: events}, &result)
	if err == nil && result.HasErrors() {
		err = toBatchError(&result, len(events))
	}

	if q.onFlushed != nil {
		q.onFlushed(FlushResult{
			EventCount: len(events),
			Successes:  len(result.Successes),
			Errors:     len(result.Errors),
			Duration:   q.now().Sub(start),
			Err:        err,
		})
	}
	if err != nil {
		return fmt.Errorf("langfuse: flush %d score events: %w", len(events), err)
	}
	return nil
}

func (q *ScoreQueue) take() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.pending
	q.pending = nil
	return events
}

func toBatchError(result *Result, total int) *pkgerrors.BatchError {
	failures := make([]pkgerrors.IngestionFailure, 0, len(result.Errors))
	for _, f := range result.Errors {
		failure := pkgerrors.IngestionFailure{ID: f.ID, Status: f.Status, Message: f.Message}
		if f.Error != nil {
			failure.ErrorMessage = fmt.Sprint(f.Error)
		}
		failures = append(failures, failure)
	}
	return &pkgerrors.BatchError{Failures: failures, Total: total}
}
