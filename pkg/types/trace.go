package types

// Trace represents a trace in Langfuse.
//
// Input and Output keep whatever shape the producer recorded: a string, a
// single {role, content} object, or a list of message-like objects.
type Trace struct {
	ID          string   `json:"id"`
	Timestamp   Time     `json:"timestamp,omitempty"`
	Name        string   `json:"name,omitempty"`
	UserID      string   `json:"userId,omitempty"`
	Input       JSON     `json:"input,omitempty"`
	Output      JSON     `json:"output,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SessionID   string   `json:"sessionId,omitempty"`
	Environment string   `json:"environment,omitempty"`

	// Read-only fields returned by the API
	ProjectID string  `json:"projectId,omitempty"`
	CreatedAt Time    `json:"createdAt,omitempty"`
	UpdatedAt Time    `json:"updatedAt,omitempty"`
	Scores    []Score `json:"scores,omitempty"`
}
