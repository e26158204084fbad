package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the envelope every session event travels in. Payload is a
// tagged union whose shape is determined exclusively by Type — decode
// it with the typed helpers below.
type Event struct {
	EventID   string          `json:"event_id"`   // unique within one session's stream
	SessionID string          `json:"session_id"` // logical run this event belongs to
	Timestamp string          `json:"timestamp"`  // RFC3339Nano
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// Parse decodes a raw JSON frame into an Event and validates the
// envelope. The payload is left opaque; malformed payloads surface
// when a store decodes them.
func Parse(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event envelope: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event %q has no type", e.EventID)
	}
	return e, nil
}

// Time parses the envelope timestamp. Returns the zero time when the
// timestamp is missing or malformed — stores treat that as "unknown",
// never as an error.
func (e Event) Time() time.Time {
	if e.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// decodePayload unmarshals the payload into v, tolerating a null or
// absent payload (v keeps its zero value).
func (e Event) decodePayload(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// SessionStarted decodes a session_started payload.
func (e Event) SessionStarted() (SessionStartedPayload, error) {
	var p SessionStartedPayload
	err := e.decodePayload(&p)
	return p, err
}

// SessionEnded decodes a session_ended payload.
func (e Event) SessionEnded() (SessionEndedPayload, error) {
	var p SessionEndedPayload
	err := e.decodePayload(&p)
	return p, err
}

// MessageStart decodes an agent_message_start payload.
func (e Event) MessageStart() (MessageStartPayload, error) {
	var p MessageStartPayload
	err := e.decodePayload(&p)
	return p, err
}

// MessageDelta decodes an agent_message_delta payload.
func (e Event) MessageDelta() (MessageDeltaPayload, error) {
	var p MessageDeltaPayload
	err := e.decodePayload(&p)
	return p, err
}

// MessageEnd decodes an agent_message_end payload.
func (e Event) MessageEnd() (MessageEndPayload, error) {
	var p MessageEndPayload
	err := e.decodePayload(&p)
	return p, err
}

// ToolCallStarted decodes a tool_call_started payload.
func (e Event) ToolCallStarted() (ToolCallStartedPayload, error) {
	var p ToolCallStartedPayload
	err := e.decodePayload(&p)
	return p, err
}

// ToolCallDelta decodes a tool_call_delta payload.
func (e Event) ToolCallDelta() (ToolCallDeltaPayload, error) {
	var p ToolCallDeltaPayload
	err := e.decodePayload(&p)
	return p, err
}

// ToolCallResult decodes a tool_call_result payload.
func (e Event) ToolCallResult() (ToolCallResultPayload, error) {
	var p ToolCallResultPayload
	err := e.decodePayload(&p)
	return p, err
}

// WorkflowStarted decodes a workflow_started payload.
func (e Event) WorkflowStarted() (WorkflowStartedPayload, error) {
	var p WorkflowStartedPayload
	err := e.decodePayload(&p)
	return p, err
}

// WorkflowCompleted decodes a workflow_completed payload.
func (e Event) WorkflowCompleted() (WorkflowCompletedPayload, error) {
	var p WorkflowCompletedPayload
	err := e.decodePayload(&p)
	return p, err
}

// WorkflowStep decodes a workflow_step_started or
// workflow_step_completed payload.
func (e Event) WorkflowStep() (WorkflowStepPayload, error) {
	var p WorkflowStepPayload
	err := e.decodePayload(&p)
	return p, err
}

// WorkflowTransition decodes a workflow_transition payload.
func (e Event) WorkflowTransition() (WorkflowTransitionPayload, error) {
	var p WorkflowTransitionPayload
	err := e.decodePayload(&p)
	return p, err
}

// Thought decodes an agent_thought payload.
func (e Event) Thought() (ThoughtPayload, error) {
	var p ThoughtPayload
	err := e.decodePayload(&p)
	return p, err
}

// RunError decodes a run_error payload.
func (e Event) RunError() (RunErrorPayload, error) {
	var p RunErrorPayload
	err := e.decodePayload(&p)
	return p, err
}

// RunRetry decodes a run_retry payload.
func (e Event) RunRetry() (RunRetryPayload, error) {
	var p RunRetryPayload
	err := e.decodePayload(&p)
	return p, err
}

// RetrievalResult decodes a retrieval_result payload.
func (e Event) RetrievalResult() (RetrievalResultPayload, error) {
	var p RetrievalResultPayload
	err := e.decodePayload(&p)
	return p, err
}

// MetricsSnapshot decodes a metrics_snapshot payload.
func (e Event) MetricsSnapshot() (MetricsSnapshotPayload, error) {
	var p MetricsSnapshotPayload
	err := e.decodePayload(&p)
	return p, err
}
