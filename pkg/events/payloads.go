package events

import "encoding/json"

// SessionStartedPayload is the payload for session_started events.
// Carries free-form session metadata surfaced by the debugger view.
type SessionStartedPayload struct {
	RunID     string         `json:"run_id"`              // logical run identifier
	AgentName string         `json:"agent_name"`          // agent that owns the session
	Model     string         `json:"model,omitempty"`     // backing model, if reported
	Metadata  map[string]any `json:"metadata,omitempty"`  // free-form source metadata
	StartedAt string         `json:"started_at,omitempty"` // RFC3339Nano
}

// SessionEndedPayload is the payload for session_ended events.
type SessionEndedPayload struct {
	RunID    string `json:"run_id"`
	Status   string `json:"status"`             // completed, failed, cancelled
	Duration int64  `json:"duration_ms,omitempty"`
}

// MessageStartPayload is the payload for agent_message_start events.
// Opens a streamed message; deltas with the same message_id follow.
type MessageStartPayload struct {
	MessageID string `json:"message_id"`     // correlating id for the delta series
	Role      string `json:"role,omitempty"` // assistant, system
}

// MessageDeltaPayload is the payload for agent_message_delta events.
// High frequency, ephemeral — consumers concatenate deltas locally.
type MessageDeltaPayload struct {
	MessageID string `json:"message_id"`
	Delta     string `json:"delta"` // incremental text chunk
}

// MessageEndPayload is the payload for agent_message_end events.
// Terminal for the message_id series; Content is the full final text.
type MessageEndPayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"` // complete message text
	Error     string `json:"error,omitempty"`
}

// ToolCallStartedPayload is the payload for tool_call_started events.
type ToolCallStartedPayload struct {
	ToolCallID string          `json:"tool_call_id"` // correlating id for delta/result
	ToolName   string          `json:"tool_name"`
	Arguments  json.RawMessage `json:"arguments,omitempty"` // tool input, verbatim
}

// ToolCallDeltaPayload is the payload for tool_call_delta events.
// Incremental tool output; merged like message deltas.
type ToolCallDeltaPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Delta      string `json:"delta"`
}

// ToolCallResultPayload is the payload for tool_call_result events.
// Terminal for the tool_call_id series.
type ToolCallResultPayload struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"` // tool output, verbatim
	Error      string          `json:"error,omitempty"`  // set when the call failed
}

// WorkflowStartedPayload is the payload for workflow_started events.
// Resets all step state in the workflow store: a new run supersedes
// the previous run unconditionally.
type WorkflowStartedPayload struct {
	RunID        string   `json:"run_id"`
	WorkflowName string   `json:"workflow_name,omitempty"`
	Steps        []string `json:"steps,omitempty"` // declared step ids, if known upfront
}

// WorkflowCompletedPayload is the payload for workflow_completed events.
type WorkflowCompletedPayload struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"` // completed, failed
}

// WorkflowStepPayload is the payload for workflow_step_started and
// workflow_step_completed events.
type WorkflowStepPayload struct {
	StepID   string `json:"step_id"` // correlating id for the step map
	StepName string `json:"step_name,omitempty"`
	Error    string `json:"error,omitempty"` // completed-with-error, if set
}

// WorkflowTransitionPayload is the payload for workflow_transition events.
type WorkflowTransitionPayload struct {
	FromStep string `json:"from_step"`
	ToStep   string `json:"to_step"`
	Reason   string `json:"reason,omitempty"`
}

// ThoughtPayload is the payload for agent_thought events.
type ThoughtPayload struct {
	Thought string `json:"thought"`
}

// RunErrorPayload is the payload for run_error events. This is an
// upstream-reported fault delivered in-band — not a transport failure.
type RunErrorPayload struct {
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`    // component that raised the error
	Recovered bool   `json:"recovered,omitempty"` // true when the run continued
}

// RunRetryPayload is the payload for run_retry events.
type RunRetryPayload struct {
	Attempt int    `json:"attempt"`
	Reason  string `json:"reason,omitempty"`
}

// RunInterruptedPayload is the payload for run_interrupted events.
type RunInterruptedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// RetrievalResultPayload is the payload for retrieval_result events.
type RetrievalResultPayload struct {
	Query string `json:"query,omitempty"`
	Hits  int    `json:"hits"`
	Store string `json:"store,omitempty"` // backing knowledge store name
}

// AutomationRunPayload is the payload for automation_run events.
type AutomationRunPayload struct {
	AutomationID string `json:"automation_id"`
	Trigger      string `json:"trigger,omitempty"`
	Status       string `json:"status,omitempty"`
}

// MetricsSnapshotPayload is the payload for metrics_snapshot events.
type MetricsSnapshotPayload struct {
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	CostUSD          float64 `json:"cost_usd,omitempty"`
	LatencyMS        int64   `json:"latency_ms,omitempty"`
}
