package stores

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// ToolCall is the inspector's single-slot record: the most recent tool
// call's correlated started/delta*/result triple.
type ToolCall struct {
	ToolCallID  string
	ToolName    string
	Arguments   json.RawMessage
	Output      string          // accumulated delta text
	Result      json.RawMessage // final result, set by tool_call_result
	Error       string
	Done        bool
	StartedAt   time.Time
	CompletedAt time.Time
}

// InspectorStore tracks only the most recent tool call. A new
// tool_call_started supersedes the slot wholesale — only one call is
// inspected at a time.
type InspectorStore struct {
	mu      sync.RWMutex
	current *ToolCall
}

// NewInspectorStore creates an empty inspector.
func NewInspectorStore() *InspectorStore {
	return &InspectorStore{}
}

// Apply folds one event into the slot. Non-tool-call events are ignored.
func (s *InspectorStore) Apply(e events.Event) {
	switch e.Type {
	case events.EventTypeToolCallStarted:
		p, err := e.ToolCallStarted()
		if err != nil {
			slog.Warn("Skipping undecodable tool event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		s.current = &ToolCall{
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Arguments:  p.Arguments,
			StartedAt:  e.Time(),
		}
		s.mu.Unlock()

	case events.EventTypeToolCallDelta:
		p, err := e.ToolCallDelta()
		if err != nil {
			slog.Warn("Skipping undecodable tool event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		if s.current != nil && s.current.ToolCallID == p.ToolCallID && !s.current.Done {
			s.current.Output += p.Delta
		}
		s.mu.Unlock()

	case events.EventTypeToolCallResult:
		p, err := e.ToolCallResult()
		if err != nil {
			slog.Warn("Skipping undecodable tool event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		if s.current != nil && s.current.ToolCallID == p.ToolCallID {
			s.current.Result = p.Result
			s.current.Error = p.Error
			s.current.Done = true
			s.current.CompletedAt = e.Time()
		} else {
			// Result with no preceding start: still recorded.
			s.current = &ToolCall{
				ToolCallID:  p.ToolCallID,
				ToolName:    p.ToolName,
				Result:      p.Result,
				Error:       p.Error,
				Done:        true,
				CompletedAt: e.Time(),
			}
		}
		s.mu.Unlock()
	}
}

// Current returns a copy of the inspected call, or nil when no call
// has been seen.
func (s *InspectorStore) Current() *ToolCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// Reset discards all state. Called on session change.
func (s *InspectorStore) Reset() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
