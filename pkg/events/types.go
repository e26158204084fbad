// Package events defines the closed set of typed events emitted by an
// agent-execution session and the envelope they travel in.
//
// ════════════════════════════════════════════════════════════════
// Event Lifecycle Patterns
// ════════════════════════════════════════════════════════════════
//
// Events follow one of three lifecycle patterns. Consumers tell them
// apart by the event type alone — payload shape is fixed per type.
//
// Pattern 1 — STREAMED (start / delta* / end):
//
//	agent_message_start  {message_id}
//	agent_message_delta  {message_id, delta: "..."}  (repeated)
//	agent_message_end    {message_id, content: "full text"}
//
//	tool_call_started    {tool_call_id, tool_name, arguments}
//	tool_call_delta      {tool_call_id, delta: "..."}  (repeated)
//	tool_call_result     {tool_call_id, result | error}
//
//	Deltas for the same correlating id are concatenated client-side
//	into one logical record. The end/result event is terminal: after
//	it, no further deltas merge into that record. A terminal event
//	with no preceding start is still recorded, never dropped.
//
// Pattern 2 — KEYED STATUS (insert-or-merge by correlating id):
//
//	workflow_step_started   {step_id}  → status active
//	workflow_step_completed {step_id}  → status completed
//
//	workflow_started resets all step state: a new run supersedes the
//	previous run's steps and transitions unconditionally.
//
// Pattern 3 — FIRE-AND-FORGET (single self-contained event):
//
//	session_started, session_ended, agent_thought, run_error,
//	run_retry, run_interrupted, retrieval_result, automation_run,
//	metrics_snapshot, workflow_transition, workflow_completed.
//
// ════════════════════════════════════════════════════════════════
package events

// EventType discriminates the payload shape of an Event.
type EventType string

// Session lifecycle.
const (
	EventTypeSessionStarted EventType = "session_started"
	EventTypeSessionEnded   EventType = "session_ended"
)

// Agent-message streaming.
const (
	EventTypeAgentMessageStart EventType = "agent_message_start"
	EventTypeAgentMessageDelta EventType = "agent_message_delta"
	EventTypeAgentMessageEnd   EventType = "agent_message_end"
)

// Tool-call lifecycle.
const (
	EventTypeToolCallStarted EventType = "tool_call_started"
	EventTypeToolCallDelta   EventType = "tool_call_delta"
	EventTypeToolCallResult  EventType = "tool_call_result"
)

// Workflow lifecycle.
const (
	EventTypeWorkflowStarted       EventType = "workflow_started"
	EventTypeWorkflowCompleted     EventType = "workflow_completed"
	EventTypeWorkflowStepStarted   EventType = "workflow_step_started"
	EventTypeWorkflowStepCompleted EventType = "workflow_step_completed"
	EventTypeWorkflowTransition    EventType = "workflow_transition"
)

// Reasoning, faults, and auxiliary activity.
const (
	EventTypeAgentThought    EventType = "agent_thought"
	EventTypeRunError        EventType = "run_error"
	EventTypeRunRetry        EventType = "run_retry"
	EventTypeRunInterrupted  EventType = "run_interrupted"
	EventTypeRetrievalResult EventType = "retrieval_result"
	EventTypeAutomationRun   EventType = "automation_run"
	EventTypeMetricsSnapshot EventType = "metrics_snapshot"
)

// Workflow step status values (used in WorkflowStore).
const (
	StepStatusPending   = "pending"
	StepStatusActive    = "active"
	StepStatusCompleted = "completed"
)

// allTypes is the closed enumeration. Dispatch treats anything outside
// this set as unknown and ignores it.
var allTypes = map[EventType]bool{
	EventTypeSessionStarted:        true,
	EventTypeSessionEnded:          true,
	EventTypeAgentMessageStart:     true,
	EventTypeAgentMessageDelta:     true,
	EventTypeAgentMessageEnd:       true,
	EventTypeToolCallStarted:       true,
	EventTypeToolCallDelta:         true,
	EventTypeToolCallResult:        true,
	EventTypeWorkflowStarted:       true,
	EventTypeWorkflowCompleted:     true,
	EventTypeWorkflowStepStarted:   true,
	EventTypeWorkflowStepCompleted: true,
	EventTypeWorkflowTransition:    true,
	EventTypeAgentThought:          true,
	EventTypeRunError:              true,
	EventTypeRunRetry:              true,
	EventTypeRunInterrupted:        true,
	EventTypeRetrievalResult:       true,
	EventTypeAutomationRun:         true,
	EventTypeMetricsSnapshot:       true,
}

// Known reports whether t is part of the closed event-type enumeration.
func Known(t EventType) bool {
	return allTypes[t]
}

// Types returns the closed enumeration as a slice. The relay uses this
// to emit one named SSE frame per declared type.
func Types() []EventType {
	out := make([]EventType, 0, len(allTypes))
	for t := range allTypes {
		out = append(out, t)
	}
	return out
}

// SessionChannel returns the NOTIFY channel name for a session's events.
// Format: "session:{session_id}"
func SessionChannel(sessionID string) string {
	return "session:" + sessionID
}
