package langfusetest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	Args    []any
}

// String renders the entry as "LEVEL message k=v ...".
func (e LogEntry) String() string {
	var b strings.Builder
	b.WriteString(e.Level + " " + e.Message)
	for i := 0; i+1 < len(e.Args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.Args[i], e.Args[i+1])
	}
	return b.String()
}

// MockLogger captures structured log entries for later verification.
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ logging.StructuredLogger = (*MockLogger)(nil)

// NewMockLogger creates a new mock logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (l *MockLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Args: args})
}

// Debug implements logging.StructuredLogger.
func (l *MockLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args) }

// Info implements logging.StructuredLogger.
func (l *MockLogger) Info(msg string, args ...any) { l.log("INFO", msg, args) }

// Warn implements logging.StructuredLogger.
func (l *MockLogger) Warn(msg string, args ...any) { l.log("WARN", msg, args) }

// Error implements logging.StructuredLogger.
func (l *MockLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args) }

// Entries returns all captured entries.
func (l *MockLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Count returns the number of entries at level. Empty level counts all.
func (l *MockLogger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any entry message contains substr.
func (l *MockLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset clears all captured entries.
func (l *MockLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
