// Package ingestion implements the score write boundary of the Langfuse
// ingestion API: score-create events are queued locally and sent as a single
// batch on Flush.
package ingestion

import (
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Endpoint for the batch ingestion API.
const Endpoint = "/ingestion"

// EventTypeScoreCreate is the ingestion event type for new scores.
const EventTypeScoreCreate = "score-create"

// Event represents a single event in a batch.
type Event struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Timestamp types.Time `json:"timestamp"`
	Body      any        `json:"body"`
}

// Request represents a batch ingestion request.
type Request struct {
	Batch    []Event        `json:"batch"`
	Metadata types.Metadata `json:"metadata,omitempty"`
}

// Result represents the per-event outcome of a batch ingestion.
type Result struct {
	Successes []Success `json:"successes"`
	Errors    []Failure `json:"errors"`
}

// Success represents a successfully ingested event.
type Success struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
}

// Failure represents an event the API rejected.
type Failure struct {
	ID      string `json:"id"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

// HasErrors returns true if there were any ingestion errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}
