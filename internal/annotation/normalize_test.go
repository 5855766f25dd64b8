package annotation

import (
	"testing"
	"time"

	"github.com/jdziat/langfuse-annotator/pkg/types"
)

var traceTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func traceWith(input, output any) types.Trace {
	return types.Trace{ID: "t1", Timestamp: types.Time{Time: traceTime}, Input: input, Output: output}
}

func roles(msgs []ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role + ":" + m.Content
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		trace types.Trace
		want  []string
	}{
		{
			name:  "string input and output",
			trace: traceWith("hi", "hello"),
			want:  []string{"user:hi", "assistant:hello"},
		},
		{
			name: "message list input",
			trace: traceWith([]any{
				map[string]any{"role": "system", "content": "be nice"},
				map[string]any{"role": "user", "content": "hi"},
				"not an object",
			}, nil),
			want: []string{"system:be nice", "user:hi"},
		},
		{
			name:  "message object input and output",
			trace: traceWith(map[string]any{"role": "user", "content": "q"}, map[string]any{"role": "assistant", "content": "a"}),
			want:  []string{"user:q", "assistant:a"},
		},
		{
			name: "output list with text items",
			trace: traceWith(nil, []any{
				map[string]any{"role": "assistant", "content": "first"},
				map[string]any{"text": "second"},
				map[string]any{"other": true},
			}),
			want: []string{"assistant:first", "assistant:second"},
		},
		{
			name:  "unrecognized shapes are skipped",
			trace: traceWith(map[string]any{"query": "x"}, 42.0),
			want:  []string{},
		},
		{
			name:  "null payloads",
			trace: traceWith(nil, nil),
			want:  []string{},
		},
		{
			name:  "object without content is ignored",
			trace: traceWith(map[string]any{"role": "user", "content": ""}, nil),
			want:  []string{},
		},
		{
			name: "structured content rendered as JSON",
			trace: traceWith([]any{
				map[string]any{"role": "user", "content": []any{map[string]any{"type": "text", "text": "hi"}}},
			}, nil),
			want: []string{`user:[{"text":"hi","type":"text"}]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roles(Normalize(tt.trace))
			if !equalStrings(got, tt.want) {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_Timestamps(t *testing.T) {
	own := "2024-05-01T11:00:00Z"
	trace := traceWith(
		[]any{map[string]any{"role": "user", "content": "late"}, map[string]any{"role": "user", "content": "early", "timestamp": own}},
		map[string]any{"role": "assistant", "content": "as-is"},
	)

	msgs := Normalize(trace)
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].Content != "early" {
		t.Errorf("first message = %q, want the one with the earlier timestamp", msgs[0].Content)
	}
	if msgs[1].Timestamp == nil || !msgs[1].Timestamp.Equal(traceTime) {
		t.Errorf("defaulted timestamp = %v, want trace timestamp", msgs[1].Timestamp)
	}
	for _, m := range msgs {
		if m.Content == "as-is" && m.Timestamp != nil {
			t.Errorf("output message object got timestamp %v, want none", m.Timestamp)
		}
	}
}

func TestNormalize_UnixMessageTimestamp(t *testing.T) {
	earlier := traceTime.Add(-time.Hour)
	trace := traceWith([]any{
		map[string]any{"role": "user", "content": "late"},
		map[string]any{"role": "user", "content": "early", "timestamp": float64(earlier.Unix()) + 0.5},
	}, nil)

	msgs := Normalize(trace)
	if len(msgs) != 2 || msgs[0].Content != "early" {
		t.Fatalf("msgs = %q, want the unix-stamped message first", roles(msgs))
	}
	if want := earlier.Add(500 * time.Millisecond); msgs[0].Timestamp == nil || !msgs[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", msgs[0].Timestamp, want)
	}
}

func TestNormalize_TextOutputUsesTraceTimestamp(t *testing.T) {
	msgs := Normalize(traceWith(nil, []any{map[string]any{"text": "x"}}))
	if len(msgs) != 1 || msgs[0].Timestamp == nil || !msgs[0].Timestamp.Equal(traceTime) {
		t.Errorf("msgs = %+v, want one message at the trace timestamp", msgs)
	}
}

func TestNormalizeAll_MissingTimestampsKeepOrder(t *testing.T) {
	traces := []types.Trace{
		{ID: "a", Input: "one", Output: "two", Scores: []types.Score{{Name: "s1"}}},
		{ID: "b", Input: "three", Scores: []types.Score{{Name: "s2"}, {Name: "s3"}}},
	}

	msgs, scores := NormalizeAll(traces)
	want := []string{"user:one", "assistant:two", "user:three"}
	if got := roles(msgs); !equalStrings(got, want) {
		t.Errorf("messages = %q, want %q", got, want)
	}
	if len(scores) != 3 || scores[0].Name != "s1" || scores[2].Name != "s3" {
		t.Errorf("scores = %+v, want s1 s2 s3 in trace order", scores)
	}
}

func TestNormalizeAll_SortsAcrossTraces(t *testing.T) {
	later := types.Trace{ID: "later", Timestamp: types.Time{Time: traceTime.Add(time.Minute)}, Input: "second"}
	earlier := types.Trace{ID: "earlier", Timestamp: types.Time{Time: traceTime}, Input: "first"}

	msgs, _ := NormalizeAll([]types.Trace{later, earlier})
	if got := roles(msgs); !equalStrings(got, []string{"user:first", "user:second"}) {
		t.Errorf("messages = %q, want ascending by timestamp", got)
	}
}

func TestNormalizeAll_Empty(t *testing.T) {
	msgs, scores := NormalizeAll(nil)
	if msgs == nil || scores == nil || len(msgs) != 0 || len(scores) != 0 {
		t.Errorf("NormalizeAll(nil) = %v, %v, want empty non-nil slices", msgs, scores)
	}
}
