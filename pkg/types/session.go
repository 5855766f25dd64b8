package types

// Session is an ordered collection of traces.
type Session struct {
	ID          string  `json:"id"`
	CreatedAt   Time    `json:"createdAt,omitempty"`
	ProjectID   string  `json:"projectId,omitempty"`
	Environment string  `json:"environment,omitempty"`
	Traces      []Trace `json:"traces"`
}
