// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/surrealist/surrealist/internal/paths"
)

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// NewPaths returns a resolver rooted in a per-test temp directory.
func NewPaths(t *testing.T) *paths.Resolver {
	t.Helper()
	return paths.NewWithRoot(t.TempDir())
}

// Event is a message captured by RecordingBroadcaster.
type Event struct {
	Type    string
	Payload any
}

// RecordingBroadcaster captures broadcast events in order.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

// Broadcast records the event.
func (r *RecordingBroadcaster) Broadcast(msgType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: msgType, Payload: payload})
	return nil
}

// Events returns a copy of everything broadcast so far.
func (r *RecordingBroadcaster) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of msgType were broadcast.
func (r *RecordingBroadcaster) Count(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == msgType {
			n++
		}
	}
	return n
}
