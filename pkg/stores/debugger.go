package stores

import (
	"sort"
	"sync"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// Timing is the start/end/duration index entry for one correlated id
// (a tool_call_id or step_id).
type Timing struct {
	ID       string
	Label    string // tool name or step name, when known
	Start    time.Time
	End      time.Time
	Duration time.Duration // End − Start, computed from event timestamps
}

// DebuggerStore aggregates the debugging sidebar's state: per-id
// timings, the distinct tool names seen, the most recent upstream
// error, and session metadata from session_started.
type DebuggerStore struct {
	mu          sync.RWMutex
	timings     map[string]*Timing
	order       []string
	toolNames   map[string]bool
	lastError   *events.RunErrorPayload
	lastErrorAt time.Time
	session     events.SessionStartedPayload
	haveSession bool
	eventCount  int
}

// NewDebuggerStore creates an empty debugger store.
func NewDebuggerStore() *DebuggerStore {
	return &DebuggerStore{
		timings:   make(map[string]*Timing),
		toolNames: make(map[string]bool),
	}
}

// Apply folds one event into the index. Every event counts toward the
// session total; only the types below carry debugger state.
func (s *DebuggerStore) Apply(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventCount++

	switch e.Type {
	case events.EventTypeSessionStarted:
		p, err := e.SessionStarted()
		if err != nil {
			return
		}
		s.session = p
		s.haveSession = true

	case events.EventTypeToolCallStarted:
		p, err := e.ToolCallStarted()
		if err != nil {
			return
		}
		if p.ToolName != "" {
			s.toolNames[p.ToolName] = true
		}
		t := s.upsertLocked(p.ToolCallID)
		t.Label = p.ToolName
		t.Start = e.Time()

	case events.EventTypeToolCallResult:
		p, err := e.ToolCallResult()
		if err != nil {
			return
		}
		t := s.upsertLocked(p.ToolCallID)
		t.End = e.Time()
		if !t.Start.IsZero() && !t.End.IsZero() {
			t.Duration = t.End.Sub(t.Start)
		}

	case events.EventTypeWorkflowStepStarted:
		p, err := e.WorkflowStep()
		if err != nil {
			return
		}
		t := s.upsertLocked(p.StepID)
		if p.StepName != "" {
			t.Label = p.StepName
		}
		t.Start = e.Time()

	case events.EventTypeWorkflowStepCompleted:
		p, err := e.WorkflowStep()
		if err != nil {
			return
		}
		t := s.upsertLocked(p.StepID)
		t.End = e.Time()
		if !t.Start.IsZero() && !t.End.IsZero() {
			t.Duration = t.End.Sub(t.Start)
		}

	case events.EventTypeRunError:
		p, err := e.RunError()
		if err != nil {
			return
		}
		s.lastError = &p
		s.lastErrorAt = e.Time()
	}
}

// upsertLocked returns the timing entry for id, inserting if absent.
// Merging never discards prior fields. Caller holds s.mu.
func (s *DebuggerStore) upsertLocked(id string) *Timing {
	if t, ok := s.timings[id]; ok {
		return t
	}
	t := &Timing{ID: id}
	s.timings[id] = t
	s.order = append(s.order, id)
	return t
}

// Timings returns all timing entries in first-seen order.
func (s *DebuggerStore) Timings() []Timing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Timing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.timings[id])
	}
	return out
}

// Timing returns one entry by correlated id.
func (s *DebuggerStore) Timing(id string) (Timing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.timings[id]
	if !ok {
		return Timing{}, false
	}
	return *t, true
}

// ToolNames returns the distinct tool names seen, sorted.
func (s *DebuggerStore) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.toolNames))
	for name := range s.toolNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LastError returns the most recent run_error payload and its
// timestamp, or nil when none has been seen.
func (s *DebuggerStore) LastError() (*events.RunErrorPayload, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastError == nil {
		return nil, time.Time{}
	}
	p := *s.lastError
	return &p, s.lastErrorAt
}

// Session returns the session_started metadata and whether it arrived.
func (s *DebuggerStore) Session() (events.SessionStartedPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.haveSession
}

// EventCount returns the total events applied this session.
func (s *DebuggerStore) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventCount
}

// Reset discards all state. Called on session change.
func (s *DebuggerStore) Reset() {
	s.mu.Lock()
	s.timings = make(map[string]*Timing)
	s.order = nil
	s.toolNames = make(map[string]bool)
	s.lastError = nil
	s.lastErrorAt = time.Time{}
	s.session = events.SessionStartedPayload{}
	s.haveSession = false
	s.eventCount = 0
	s.mu.Unlock()
}
