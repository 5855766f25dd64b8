package annotation

import (
	"sync"

	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Location is the externally visible item parameter. The current position
// in a queue is always derived from it; nothing else stores an index.
type Location interface {
	// ItemID returns the item id currently addressed, or "".
	ItemID() string
	// Replace sets the item id without adding a history entry.
	Replace(itemID string)
	// Push sets the item id and adds a history entry.
	Push(itemID string)
}

// MemoryLocation is an in-memory Location that keeps its history.
type MemoryLocation struct {
	mu       sync.Mutex
	itemID   string
	history  []string
	replaced int
}

var _ Location = (*MemoryLocation)(nil)

// NewMemoryLocation returns a location addressing itemID, which may be "".
func NewMemoryLocation(itemID string) *MemoryLocation {
	l := &MemoryLocation{itemID: itemID}
	if itemID != "" {
		l.history = []string{itemID}
	}
	return l
}

func (l *MemoryLocation) ItemID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.itemID
}

func (l *MemoryLocation) Replace(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.itemID = itemID
	l.replaced++
	if n := len(l.history); n > 0 {
		l.history[n-1] = itemID
	} else {
		l.history = append(l.history, itemID)
	}
}

func (l *MemoryLocation) Push(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.itemID = itemID
	l.history = append(l.history, itemID)
}

// History returns the visited item ids, oldest first.
func (l *MemoryLocation) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.history...)
}

// Replacements returns how many times Replace was called.
func (l *MemoryLocation) Replacements() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaced
}

// RequestLocation is a Location scoped to a single HTTP request.
// Replace records a canonical item id for the response instead of history.
type RequestLocation struct {
	mu        sync.Mutex
	itemID    string
	canonical string
}

var _ Location = (*RequestLocation)(nil)

// NewRequestLocation returns a location for the item id of an incoming request.
func NewRequestLocation(itemID string) *RequestLocation {
	return &RequestLocation{itemID: itemID}
}

func (l *RequestLocation) ItemID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.itemID
}

func (l *RequestLocation) Replace(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.itemID = itemID
	l.canonical = itemID
}

func (l *RequestLocation) Push(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.itemID = itemID
}

// Canonical returns the id set through Replace, or "" if none was.
func (l *RequestLocation) Canonical() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canonical
}

// CurrentIndex returns the index of the first item whose id equals itemID,
// or 0 when there is no match.
func CurrentIndex(items []types.QueueItem, itemID string) int {
	for i, item := range items {
		if item.ID == itemID {
			return i
		}
	}
	return 0
}

// State is the lifecycle phase of a Workspace.
type State int

const (
	StateLoading State = iota
	StateReady
	StateItemLoading
	StateItemReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateItemLoading:
		return "item-loading"
	case StateItemReady:
		return "item-ready"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
