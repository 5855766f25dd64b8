// Package annotation implements the annotation workflow over Langfuse queues:
// normalizing trace payloads into chat transcripts, deriving the current
// queue position from a location parameter, collecting scores against score
// configs, and submitting them while completing the queue item.
//
// The workflow is transport agnostic. The HTTP service drives a Workspace
// per request with a RequestLocation, and the terminal client drives a
// long-lived Workspace with a MemoryLocation.
package annotation
