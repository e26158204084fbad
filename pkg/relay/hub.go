// Package relay bridges an agent backend to SSE watchers. Ingested
// events are persisted and broadcast through PostgreSQL NOTIFY so every
// relay replica sees them; each replica fans received notifications out
// to its locally connected SSE subscribers.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls this far behind starts losing events — the stream contract
// does not guarantee gap-free delivery to slow consumers.
const subscriberBuffer = 64

// listenTimeout bounds how long a LISTEN command may block when the
// first subscriber joins a channel.
const listenTimeout = 10 * time.Second

// channelListener issues the LISTEN/UNLISTEN transitions the hub
// requests. Satisfied by *NotifyListener.
type channelListener interface {
	Listen(ctx context.Context, channel string) error
	Unlisten(ctx context.Context, channel string) error
}

// Hub tracks SSE subscribers per NOTIFY channel and fans broadcast
// payloads out to them. LISTEN is ref-counted: issued when the first
// subscriber for a channel arrives, dropped when the last one leaves.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan []byte // channel → sub id → send queue

	listenerMu sync.RWMutex
	listener   channelListener

	// listenOpMu serializes LISTEN/UNLISTEN transitions per hub so a
	// trailing UNLISTEN cannot interleave with a first-subscriber
	// LISTEN and leave a live subscriber on a dropped channel.
	listenOpMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[string]chan []byte)}
}

// SetListener attaches the NOTIFY listener used for dynamic
// LISTEN/UNLISTEN. Called once during startup.
func (h *Hub) SetListener(l *NotifyListener) {
	h.listenerMu.Lock()
	if l != nil {
		h.listener = l
	}
	h.listenerMu.Unlock()
}

// Subscribe registers a new subscriber for channel and returns its id
// and receive queue. The first subscriber triggers a synchronous
// LISTEN so no event published after Subscribe returns is missed.
func (h *Hub) Subscribe(ctx context.Context, channel string) (string, <-chan []byte, error) {
	id := uuid.New().String()
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	first := false
	if _, ok := h.subscribers[channel]; !ok {
		h.subscribers[channel] = make(map[string]chan []byte)
		first = true
	}
	h.subscribers[channel][id] = ch
	h.mu.Unlock()

	if first {
		h.listenerMu.RLock()
		l := h.listener
		h.listenerMu.RUnlock()
		if l != nil {
			listenCtx, cancel := context.WithTimeout(ctx, listenTimeout)
			defer cancel()
			h.listenOpMu.Lock()
			err := l.Listen(listenCtx, channel)
			h.listenOpMu.Unlock()
			if err != nil {
				h.Unsubscribe(channel, id)
				return "", nil, fmt.Errorf("listen on %s: %w", channel, err)
			}
		}
	}

	return id, ch, nil
}

// Unsubscribe removes a subscriber. When the last subscriber for a
// channel leaves, UNLISTEN is issued asynchronously; the goroutine
// re-checks for a rapid resubscribe before dropping the LISTEN.
func (h *Hub) Unsubscribe(channel, id string) {
	h.mu.Lock()
	subs, ok := h.subscribers[channel]
	if !ok {
		h.mu.Unlock()
		return
	}
	if ch, ok := subs[id]; ok {
		delete(subs, id)
		close(ch)
	}
	last := len(subs) == 0
	if last {
		delete(h.subscribers, channel)
	}
	h.mu.Unlock()

	if !last {
		return
	}
	h.listenerMu.RLock()
	l := h.listener
	h.listenerMu.RUnlock()
	if l == nil {
		return
	}
	go func() {
		h.listenOpMu.Lock()
		defer h.listenOpMu.Unlock()

		// Re-check under listenOpMu: a resubscribe that won the lock
		// first kept its LISTEN via the listener's idempotency, and one
		// that arrives after us re-issues LISTEN from scratch. Either
		// way a present subscriber never ends up unlistened.
		h.mu.RLock()
		_, resubscribed := h.subscribers[channel]
		h.mu.RUnlock()
		if resubscribed {
			return
		}
		if err := l.Unlisten(context.Background(), channel); err != nil {
			slog.Error("Failed to UNLISTEN channel", "channel", channel, "error", err)
		}
	}()
}

// Broadcast delivers a payload to every subscriber of channel. Sends
// never block: a subscriber with a full queue loses this event.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	subs := h.subscribers[channel]
	queues := make([]chan []byte, 0, len(subs))
	for _, ch := range subs {
		queues = append(queues, ch)
	}
	h.mu.RUnlock()

	for _, ch := range queues {
		select {
		case ch <- payload:
		default:
			slog.Warn("Dropping event for slow SSE subscriber", "channel", channel)
		}
	}
}

// SubscriberCount returns the number of subscribers for a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}
