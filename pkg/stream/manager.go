// Package stream maintains one resilient server-sent-event connection
// per active session and fans received events out to registered
// handlers. Transport failures are retried forever with capped backoff;
// malformed frames are logged and dropped without touching the
// connection.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// Notifier receives user-visible transient notifications (connection
// lost / restored). Implementations must be fast and non-blocking;
// the TUI renders these as auto-dismissing toasts.
type Notifier interface {
	Notify(level NotifyLevel, message string)
}

// NotifyLevel classifies a transient notification.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

// Config holds the static connection settings. None of these are
// negotiated with the source at runtime.
type Config struct {
	// BaseURL is the event source root; the stream endpoint is
	// {BaseURL}/events/{sessionID}.
	BaseURL string

	// Backoff controls reconnect delays. Zero value means DefaultBackoff.
	Backoff Backoff

	// Client is the HTTP client used for the stream request. nil means
	// a default client without a global timeout (the request must stay
	// open indefinitely).
	Client *http.Client
}

// Manager owns at most one live SSE connection, keyed by session id.
// SetSession transitions between sessions: the previous transport and
// any pending reconnect timer are torn down before a new connection is
// opened. Handlers and the observer live in a Registry read at dispatch
// time, decoupled from connection lifecycle.
type Manager struct {
	cfg      Config
	registry *Registry
	notifier Notifier

	mu        sync.Mutex
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}

	connected atomic.Bool
	closed    bool
}

// NewManager creates an idle manager. notifier may be nil.
func NewManager(cfg Config, notifier Notifier) *Manager {
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Manager{
		cfg:      cfg,
		registry: NewRegistry(),
		notifier: notifier,
	}
}

// SetHandlers replaces the handler map without touching the connection.
func (m *Manager) SetHandlers(h HandlerMap) { m.registry.SetHandlers(h) }

// SetObserver replaces the catch-all observer without touching the
// connection.
func (m *Manager) SetObserver(h Handler) { m.registry.SetObserver(h) }

// Connected reports whether the transport is currently open.
func (m *Manager) Connected() bool { return m.connected.Load() }

// SessionID returns the currently bound session id ("" when idle).
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// SetSession binds the manager to a session id. An empty id tears down
// any live connection and leaves the manager idle. A changed id closes
// the previous transport (and cancels a pending reconnect) before the
// new connection is opened. Setting the same id is a no-op.
func (m *Manager) SetSession(sessionID string) {
	m.mu.Lock()
	if m.closed || sessionID == m.sessionID {
		m.mu.Unlock()
		return
	}
	m.teardownLocked()
	m.sessionID = sessionID
	if sessionID == "" {
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go m.run(ctx, sessionID, done)
}

// Close tears down the connection permanently. Subsequent SetSession
// calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	m.sessionID = ""
	m.closed = true
}

// teardownLocked cancels the running connection goroutine and waits for
// it to exit, guaranteeing the transport is released and that no stale
// callback fires afterwards. Caller holds m.mu.
func (m *Manager) teardownLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.done != nil {
		<-m.done
		m.done = nil
	}
	m.connected.Store(false)
}

// run is the per-session connection loop: connect, consume until the
// transport fails, back off, retry. Exits only when ctx is cancelled
// (session change or Close).
func (m *Manager) run(ctx context.Context, sessionID string, done chan struct{}) {
	defer close(done)

	retry := 0
	for {
		err := m.consume(ctx, sessionID, &retry)
		if ctx.Err() != nil {
			return
		}

		wasConnected := m.connected.Swap(false)
		if wasConnected {
			slog.Warn("Event stream lost, reconnecting",
				"session_id", sessionID, "error", err)
			m.notify(NotifyWarning, "connection lost, reconnecting")
		}

		retry++
		delay := m.cfg.Backoff.Delay(retry)
		slog.Debug("Scheduling stream reconnect",
			"session_id", sessionID, "attempt", retry, "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// consume opens the SSE transport and dispatches frames until the
// stream ends or fails. The response body is closed on every exit path.
func (m *Manager) consume(ctx context.Context, sessionID string, retry *int) error {
	url := strings.TrimRight(m.cfg.BaseURL, "/") + "/events/" + sessionID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := m.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("stream request failed: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
		// Surface the refusal in-band so consumers can render it.
		m.registry.Dispatch(syntheticRunError(sessionID, err))
		return err
	}

	reconnected := *retry > 0
	*retry = 0
	m.connected.Store(true)
	if reconnected {
		slog.Info("Event stream reconnected", "session_id", sessionID)
		m.notify(NotifyInfo, "connection restored")
	}

	frames := NewFrameReader(resp.Body)
	for {
		frame, err := frames.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == io.EOF {
				return fmt.Errorf("stream closed by source")
			}
			return fmt.Errorf("read stream: %w", err)
		}
		m.dispatchFrame(sessionID, frame)
	}
}

// dispatchFrame parses and delivers one physical frame. Named and
// unnamed frames share this single path, so a frame is never delivered
// twice regardless of its framing. Parse failures are logged to the
// observability sink and the frame is dropped — the connection stays up.
func (m *Manager) dispatchFrame(sessionID string, frame Frame) {
	e, err := events.Parse(frame.Data)
	if err != nil {
		slog.Error("Dropping malformed stream frame",
			"session_id", sessionID, "sse_event", frame.Event, "error", err)
		return
	}
	// The envelope's type field is authoritative; a mismatched SSE
	// event name is tolerated but worth flagging upstream.
	if frame.Event != "" && events.EventType(frame.Event) != e.Type {
		slog.Debug("SSE frame name disagrees with envelope type",
			"sse_event", frame.Event, "type", e.Type)
	}
	m.registry.Dispatch(e)
}

func (m *Manager) notify(level NotifyLevel, message string) {
	if m.notifier != nil {
		m.notifier.Notify(level, message)
	}
}

// syntheticRunError wraps a transport-level refusal as an in-band
// run_error event so it reaches whatever store renders errors.
func syntheticRunError(sessionID string, cause error) events.Event {
	payload, _ := json.Marshal(events.RunErrorPayload{
		Message: cause.Error(),
		Source:  "stream",
	})
	return events.Event{
		EventID:   "synthetic-run-error",
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Type:      events.EventTypeRunError,
		Payload:   payload,
	}
}
