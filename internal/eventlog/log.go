// Package eventlog provides the append-only session log that is the
// orchestrator's sole source of truth. A log is an ordered sequence of
// events; entries are immutable once appended and are never reordered.
// Phase, iteration count, and summaries are always derived from the log,
// never stored alongside it.
package eventlog

import (
	"sync"

	"github.com/triadworks/triad/pkg/models"
)

// Log is the orchestrator's contract with a session history: read the
// ordered sequence, append to the end. No deletion, no mutation.
type Log interface {
	// Append adds an event to the end of the log and returns its
	// zero-based sequence number.
	Append(e models.Event) (int, error)
	// Events returns the full ordered history.
	Events() ([]models.Event, error)
}

// MemoryLog is an in-process Log. It is the embedding-friendly backend
// and the one tests use.
type MemoryLog struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewMemoryLog creates an empty in-memory log, optionally seeded with
// an initial history.
func NewMemoryLog(seed ...models.Event) *MemoryLog {
	l := &MemoryLog{}
	l.events = append(l.events, seed...)
	return l
}

// Append implements Log.
func (l *MemoryLog) Append(e models.Event) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return len(l.events) - 1, nil
}

// Events implements Log. The returned slice is a copy; appends after the
// read do not show through.
func (l *MemoryLog) Events() ([]models.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Event, len(l.events))
	copy(out, l.events)
	return out, nil
}

// Len returns the number of events in the log.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
