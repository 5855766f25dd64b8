package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
	"github.com/jdziat/langfuse-annotator/langfusetest"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

var scoredAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func seed(server *langfusetest.Server) {
	server.AddQueue(types.AnnotationQueue{ID: "q1", Name: "Support", ScoreConfigIDs: []string{"quality", "helpful"}})
	server.AddScoreConfig(types.ScoreConfig{ID: "quality", Name: "Quality", DataType: types.ScoreDataTypeNumeric,
		MinValue: types.Float(1), MaxValue: types.Float(5)})
	server.AddScoreConfig(types.ScoreConfig{ID: "helpful", Name: "Helpful", DataType: types.ScoreDataTypeBoolean})
	server.AddTrace(types.Trace{ID: "t1", Timestamp: types.Time{Time: scoredAt}, Input: "where is my order?", Output: "it ships today"})
	server.AddTrace(types.Trace{ID: "t2", Timestamp: types.Time{Time: scoredAt}, Input: "thanks"})
	server.AddItem(types.QueueItem{ID: "i1", QueueID: "q1", ObjectID: "t1", ObjectType: types.ObjectTypeTrace})
	server.AddItem(types.QueueItem{ID: "i2", QueueID: "q1", ObjectID: "t2", ObjectType: types.ObjectTypeTrace,
		Status: types.QueueItemStatusCompleted, CompletedAt: types.TimePtr(scoredAt)})
}

func runScript(t *testing.T, script string, itemID string) (string, *langfusetest.Server, error) {
	t.Helper()
	c, server := langfusetest.NewTestClient(t)
	seed(server)
	logger := langfusetest.NewMockLogger()
	ws := annotation.NewWorkspace("q1", annotation.NewClientBackend(c), annotation.NewMemoryLocation(itemID), logger)

	var out bytes.Buffer
	err := runAnnotate(context.Background(), ws, strings.NewReader(script), &out, logger)
	return out.String(), server, err
}

func TestAnnotate_ShowsFirstItem(t *testing.T) {
	out, _, err := runScript(t, "quit\n", "")
	require.NoError(t, err)

	assert.Contains(t, out, "Support: item 1 of 2 (TRACE t1)")
	assert.Contains(t, out, "[user]\nwhere is my order?")
	assert.Contains(t, out, "[assistant]\nit ships today")
	assert.Contains(t, out, "Quality [1 2 3 4 5]: -")
	assert.Contains(t, out, "Helpful [Yes=1 No=0]: -")
	assert.Contains(t, out, "Missing: Quality, Helpful")
}

func TestAnnotate_SubmitScores(t *testing.T) {
	script := strings.Join([]string{
		"submit",
		"set quality 4",
		"set helpful yes",
		"comment clear answer",
		"submit",
	}, "\n") + "\n"
	out, server, err := runScript(t, script, "")
	require.NoError(t, err)

	assert.Contains(t, out, "Please provide all scores before submitting")
	assert.Contains(t, out, "Quality = 4")
	assert.Contains(t, out, "Helpful = 1")
	assert.Contains(t, out, "Submitted scores for i1.")
	assert.Contains(t, out, "Support: item 2 of 2 (TRACE t2)")

	scores := server.Scores()
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.Equal(t, "t1", s.TraceID)
		assert.Equal(t, "q1", s.QueueID)
		assert.Equal(t, "clear answer", s.Comment)
	}
	item, ok := server.Item("q1", "i1")
	require.True(t, ok)
	assert.Equal(t, types.QueueItemStatusCompleted, item.Status)
}

func TestAnnotate_RejectsInvalidInput(t *testing.T) {
	script := strings.Join([]string{
		"set quality 9",
		"set quality abc",
		"set speed 1",
		"set quality",
		"dance",
	}, "\n") + "\n"
	out, server, err := runScript(t, script, "")
	require.NoError(t, err)

	assert.Contains(t, out, "Value 9 is not allowed for Quality.")
	assert.Contains(t, out, "Invalid value:")
	assert.Contains(t, out, `Unknown score "speed".`)
	assert.Contains(t, out, "Usage: set <score> <value>")
	assert.Contains(t, out, `Unknown command "dance".`)
	assert.Empty(t, server.Scores())
}

func TestAnnotate_Navigation(t *testing.T) {
	out, _, err := runScript(t, "p\nn\nn\np\n", "")
	require.NoError(t, err)

	assert.Contains(t, out, "Already at the first item.")
	assert.Contains(t, out, "Already at the last item.")
	assert.Equal(t, 2, strings.Count(out, "item 1 of 2"))
}

func TestAnnotate_CompletedItem(t *testing.T) {
	out, server, err := runScript(t, "set quality 3\nsubmit\n", "i2")
	require.NoError(t, err)

	assert.Contains(t, out, "This item was scored on "+scoredAt.Local().Format("Jan 2, 2006 3:04 PM")+".")
	assert.NotContains(t, out, "Quality [")
	assert.Contains(t, out, "This item is already completed.")
	assert.Empty(t, server.Scores())
}

func TestAnnotate_SubmitFailure(t *testing.T) {
	c, server := langfusetest.NewTestClient(t)
	seed(server)
	server.FailPath(http.MethodPost, "/ingestion", http.StatusInternalServerError)
	logger := langfusetest.NewMockLogger()
	ws := annotation.NewWorkspace("q1", annotation.NewClientBackend(c), annotation.NewMemoryLocation(""), logger)

	var out bytes.Buffer
	err := runAnnotate(context.Background(), ws, strings.NewReader("set quality 2\nset helpful no\nsubmit\n"), &out, logger)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Failed to submit scores. Please try again.")
	assert.True(t, logger.Contains("Error submitting scores"))
	item, _ := server.Item("q1", "i1")
	assert.Equal(t, types.QueueItemStatusPending, item.Status)
}

func TestAnnotate_UnknownQueue(t *testing.T) {
	c, _ := langfusetest.NewTestClient(t)
	ws := annotation.NewWorkspace("missing", annotation.NewClientBackend(c), annotation.NewMemoryLocation(""), nil)

	var out bytes.Buffer
	err := runAnnotate(context.Background(), ws, strings.NewReader(""), &out, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `queue "missing" not found`)
}
