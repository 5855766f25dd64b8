// Package langfusetest provides an in-memory fake of the Langfuse public API
// and helpers for testing code built on pkg/client.
//
// # Fake Server
//
// Server serves annotation queues, queue items, sessions, traces, score
// configs and batch ingestion from memory, enforcing Basic authentication
// the way the upstream does:
//
//	server := langfusetest.NewServer()
//	defer server.Close()
//
//	server.AddScoreConfig(types.ScoreConfig{ID: "c1", Name: "quality", DataType: types.ScoreDataTypeBoolean})
//	server.AddQueue(types.AnnotationQueue{ID: "q1", Name: "Support", ScoreConfigIDs: []string{"c1"}})
//	server.AddItem(types.QueueItem{ID: "i1", QueueID: "q1", ObjectID: "t1", ObjectType: types.ObjectTypeTrace})
//
//	// ... exercise code against server.URL ...
//
//	scores := server.Scores()
//
// # Test Client
//
// NewTestClient returns a client already pointed at a fresh fake server:
//
//	func TestMyFeature(t *testing.T) {
//	    client, server := langfusetest.NewTestClient(t)
//	    // both are cleaned up when the test ends
//	}
//
// # Failure Injection
//
// FailWhen makes matching requests fail with a status code, for testing
// degraded reads and submission errors.
//
// # Mock Logger
//
// MockLogger captures structured log entries for assertions.
package langfusetest
