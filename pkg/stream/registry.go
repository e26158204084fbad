package stream

import (
	"sync"

	"github.com/agentlens/agentlens/pkg/events"
)

// Handler consumes one event. Handlers run on the connection's read
// goroutine; they must not block.
type Handler func(events.Event)

// HandlerMap maps event types to handlers. Types absent from the map
// are silently ignored by dispatch.
type HandlerMap map[events.EventType]Handler

// Registry is the mutable holder between the connection and its
// consumers. Dispatch resolves handlers at delivery time against the
// current set, so swapping handlers (a new closure identity per render
// of the owning view) never restarts the connection — the connection's
// lifecycle is keyed by session id alone.
type Registry struct {
	mu       sync.RWMutex
	handlers HandlerMap
	observer Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetHandlers replaces the handler map wholesale.
func (r *Registry) SetHandlers(m HandlerMap) {
	r.mu.Lock()
	r.handlers = m
	r.mu.Unlock()
}

// SetObserver replaces the catch-all observer. A nil observer disables it.
func (r *Registry) SetObserver(h Handler) {
	r.mu.Lock()
	r.observer = h
	r.mu.Unlock()
}

// Dispatch delivers one event: the observer first (if registered),
// then the handler for the event's type (if registered). Each is
// invoked at most once per event; unregistered types are dropped
// silently.
func (r *Registry) Dispatch(e events.Event) {
	r.mu.RLock()
	obs := r.observer
	h := r.handlers[e.Type]
	r.mu.RUnlock()

	if obs != nil {
		obs(e)
	}
	if h != nil {
		h(e)
	}
}
