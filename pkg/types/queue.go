package types

// AnnotationQueue is a named unit of annotation work with its scoring rubrics.
type AnnotationQueue struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	ScoreConfigIDs []string `json:"scoreConfigIds"`
	ProjectID      string   `json:"projectId,omitempty"`
	CreatedAt      Time     `json:"createdAt,omitempty"`
	UpdatedAt      Time     `json:"updatedAt,omitempty"`
}

// QueueSummary is a queue with item counts derived from its item list.
type QueueSummary struct {
	AnnotationQueue
	PendingItemCount   int `json:"pendingItemCount"`
	CompletedItemCount int `json:"completedItemCount"`
}

// Summarize derives pending and completed counts for q from items.
func Summarize(q AnnotationQueue, items []QueueItem) QueueSummary {
	s := QueueSummary{AnnotationQueue: q}
	for _, item := range items {
		switch item.Status {
		case QueueItemStatusPending:
			s.PendingItemCount++
		case QueueItemStatusCompleted:
			s.CompletedItemCount++
		}
	}
	return s
}

// QueueItem references a trace or session awaiting annotation.
type QueueItem struct {
	ID          string          `json:"id"`
	QueueID     string          `json:"queueId"`
	ObjectID    string          `json:"objectId"`
	ObjectType  ObjectType      `json:"objectType"`
	Status      QueueItemStatus `json:"status"`
	CreatedAt   Time            `json:"createdAt,omitempty"`
	UpdatedAt   Time            `json:"updatedAt,omitempty"`
	CompletedAt *Time           `json:"completedAt,omitempty"`
}

// IsCompleted reports whether the item has been annotated.
func (i QueueItem) IsCompleted() bool {
	return i.Status == QueueItemStatusCompleted
}
