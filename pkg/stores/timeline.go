package stores

import (
	"sync"

	"github.com/agentlens/agentlens/pkg/events"
)

// TimelineStore keeps the raw event log in arrival order, capped at a
// fixed length. Filtering by event type is a read-time projection and
// never mutates the backing sequence.
type TimelineStore struct {
	mu     sync.RWMutex
	max    int
	events []events.Event
}

// NewTimelineStore creates a timeline with the given retention bound.
// max <= 0 uses DefaultTimelineMax.
func NewTimelineStore(max int) *TimelineStore {
	if max <= 0 {
		max = DefaultTimelineMax
	}
	return &TimelineStore{max: max}
}

// Apply appends one event and enforces the retention bound.
func (s *TimelineStore) Apply(e events.Event) {
	s.mu.Lock()
	s.events = AppendCapped(s.events, e, s.max)
	s.mu.Unlock()
}

// Events returns a snapshot of the retained events in arrival order.
func (s *TimelineStore) Events() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Filtered returns the retained events whose type is in the given set,
// in arrival order. An empty set returns everything.
func (s *TimelineStore) Filtered(types ...events.EventType) []events.Event {
	if len(types) == 0 {
		return s.Events()
	}
	want := make(map[events.EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.events {
		if want[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained events.
func (s *TimelineStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Reset discards all state. Called on session change.
func (s *TimelineStore) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}
