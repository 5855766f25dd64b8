package annotation

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Chat roles produced by the normalizer.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one rendered turn of a transcript.
type ChatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// payload is the classified shape of a trace input or output.
// Exactly one of the concrete types below implements it.
type payload interface {
	isPayload()
}

type (
	// stringPayload is a plain text payload.
	stringPayload string
	// messagePayload is a single object with a role and content.
	messagePayload map[string]any
	// listPayload is an ordered sequence of message-like entries.
	listPayload []any
	// ignoredPayload is anything else: null, numbers, bare objects.
	ignoredPayload struct{}
)

func (stringPayload) isPayload()  {}
func (messagePayload) isPayload() {}
func (listPayload) isPayload()    {}
func (ignoredPayload) isPayload() {}

// classify maps a decoded JSON value onto its payload shape.
func classify(v any) payload {
	switch val := v.(type) {
	case string:
		return stringPayload(val)
	case []any:
		return listPayload(val)
	case map[string]any:
		if isMessage(val) {
			return messagePayload(val)
		}
	}
	return ignoredPayload{}
}

// isMessage reports whether obj carries a non-empty role and content.
func isMessage(obj map[string]any) bool {
	return truthy(obj["role"]) && truthy(obj["content"])
}

// truthy treats nil, "", false and 0 as absent.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	}
	return true
}

// Normalize converts one trace's input and output into an ordered message
// list. Unrecognized shapes are skipped rather than reported.
func Normalize(trace types.Trace) []ChatMessage {
	msgs := normalizeTrace(trace)
	sortByTimestamp(msgs)
	return msgs
}

// NormalizeAll flattens the messages and scores of traces in trace order,
// then stable-sorts the combined messages by timestamp.
func NormalizeAll(traces []types.Trace) ([]ChatMessage, []types.Score) {
	msgs := []ChatMessage{}
	scores := []types.Score{}
	for _, trace := range traces {
		msgs = append(msgs, normalizeTrace(trace)...)
		scores = append(scores, trace.Scores...)
	}
	sortByTimestamp(msgs)
	return msgs, scores
}

func normalizeTrace(trace types.Trace) []ChatMessage {
	traceTS := timePtr(trace.Timestamp.Time)
	var msgs []ChatMessage

	switch in := classify(trace.Input).(type) {
	case listPayload:
		for _, entry := range in {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			msgs = append(msgs, fromObject(obj, traceTS))
		}
	case stringPayload:
		msgs = append(msgs, ChatMessage{Role: RoleUser, Content: string(in), Timestamp: traceTS})
	case messagePayload:
		msgs = append(msgs, fromObject(in, traceTS))
	case ignoredPayload:
	}

	switch out := classify(trace.Output).(type) {
	case listPayload:
		for _, entry := range out {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			switch {
			case isMessage(obj):
				msgs = append(msgs, fromObject(obj, nil))
			case truthy(obj["text"]):
				msgs = append(msgs, ChatMessage{Role: RoleAssistant, Content: render(obj["text"]), Timestamp: traceTS})
			}
		}
	case stringPayload:
		msgs = append(msgs, ChatMessage{Role: RoleAssistant, Content: string(out), Timestamp: traceTS})
	case messagePayload:
		msgs = append(msgs, fromObject(out, nil))
	case ignoredPayload:
	}

	return msgs
}

// fromObject copies a message-like object, falling back to fallback when it
// carries no parseable timestamp of its own.
func fromObject(obj map[string]any, fallback *time.Time) ChatMessage {
	role, _ := obj["role"].(string)
	msg := ChatMessage{Role: role, Content: render(obj["content"]), Timestamp: fallback}
	if parsed, ok := types.TimeOf(obj["timestamp"]); ok {
		msg.Timestamp = &parsed
	}
	return msg
}

// render returns strings unchanged and structured content as compact JSON.
func render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// sortByTimestamp orders messages ascending by timestamp. A message without
// a timestamp compares equal to every other message.
func sortByTimestamp(msgs []ChatMessage) {
	slices.SortStableFunc(msgs, func(a, b ChatMessage) int {
		if a.Timestamp == nil || b.Timestamp == nil {
			return 0
		}
		return a.Timestamp.Compare(*b.Timestamp)
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
