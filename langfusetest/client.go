package langfusetest

import (
	"github.com/jdziat/langfuse-annotator/pkg/client"
)

// TestingT is an interface that matches *testing.T and *testing.B.
type TestingT interface {
	Fatalf(format string, args ...any)
	Cleanup(func())
	Helper()
}

// NewTestClient creates a client pointed at a fresh fake server.
// Retries are disabled so injected failures surface immediately.
// The server is closed when the test ends.
func NewTestClient(t TestingT, opts ...client.ConfigOption) (*client.Client, *Server) {
	t.Helper()

	server := NewServer()
	t.Cleanup(server.Close)

	base := []client.ConfigOption{client.WithNoRetries()}
	c, err := client.New(Config(server), append(base, opts...)...)
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}
	return c, server
}

// Config returns a client configuration for server with the test keys.
func Config(server *Server) client.Config {
	return client.Config{
		PublicKey:  TestPublicKey,
		SecretKey:  TestSecretKey,
		Host:       server.URL,
		HTTPClient: server.Client(),
	}
}
