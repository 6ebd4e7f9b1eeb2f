package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Event is one domain event for a draft. Payload is one of the *Payload types.
type Event struct {
	DraftID uuid.UUID
	Type    EventType
	Payload any
}

// Sink receives domain events after the authoritative write has committed.
// Implementations must not fail the caller.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Fanout emits to every sink in order.
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, e Event) {
	for _, s := range f {
		s.Emit(ctx, e)
	}
}
