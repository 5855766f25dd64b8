package types

// Score represents a score attached to a trace, session or observation.
type Score struct {
	ID            string        `json:"id,omitempty"`
	TraceID       string        `json:"traceId,omitempty"`
	SessionID     string        `json:"sessionId,omitempty"`
	ObservationID string        `json:"observationId,omitempty"`
	Name          string        `json:"name"`
	Value         any           `json:"value"`
	StringValue   string        `json:"stringValue,omitempty"`
	DataType      ScoreDataType `json:"dataType,omitempty"`
	Source        ScoreSource   `json:"source,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	ConfigID      string        `json:"configId,omitempty"`
	QueueID       string        `json:"queueId,omitempty"`

	// Read-only fields
	Timestamp    Time   `json:"timestamp,omitempty"`
	AuthorUserID string `json:"authorUserId,omitempty"`
}

// ScoreSubmission is a human-entered score written back to Langfuse.
// Exactly one of TraceID and SessionID is set.
type ScoreSubmission struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	Value         float64       `json:"value"`
	StringValue   string        `json:"stringValue,omitempty"`
	DataType      ScoreDataType `json:"dataType,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	ConfigID      string        `json:"configId,omitempty"`
	TraceID       string        `json:"traceId,omitempty"`
	SessionID     string        `json:"sessionId,omitempty"`
	ObservationID string        `json:"observationId,omitempty"`
	QueueID       string        `json:"queueId,omitempty"`
	Source        ScoreSource   `json:"source,omitempty"`
}

// ConfigCategory is one selectable category of a CATEGORICAL score config.
// Value is optional upstream; callers fall back to the category position.
type ConfigCategory struct {
	Label string   `json:"label"`
	Value *float64 `json:"value,omitempty"`
}

// ScoreConfig is a rubric definition against which scores are collected.
type ScoreConfig struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DataType    ScoreDataType    `json:"dataType"`
	Description string           `json:"description,omitempty"`
	MinValue    *float64         `json:"minValue,omitempty"`
	MaxValue    *float64         `json:"maxValue,omitempty"`
	Categories  []ConfigCategory `json:"categories,omitempty"`
	IsArchived  bool             `json:"isArchived,omitempty"`
	ProjectID   string           `json:"projectId,omitempty"`
	CreatedAt   Time             `json:"createdAt,omitempty"`
	UpdatedAt   Time             `json:"updatedAt,omitempty"`
}

// HasBounds reports whether both numeric bounds are declared.
func (c ScoreConfig) HasBounds() bool {
	return c.MinValue != nil && c.MaxValue != nil
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
