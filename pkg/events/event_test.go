package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("parses a complete envelope", func(t *testing.T) {
		raw := []byte(`{
			"event_id": "evt-1",
			"session_id": "sess-abc",
			"timestamp": "2026-08-29T10:15:04.123456789Z",
			"type": "agent_message_delta",
			"payload": {"message_id": "msg-1", "delta": "hello"}
		}`)

		e, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "evt-1", e.EventID)
		assert.Equal(t, "sess-abc", e.SessionID)
		assert.Equal(t, EventTypeAgentMessageDelta, e.Type)

		p, err := e.MessageDelta()
		require.NoError(t, err)
		assert.Equal(t, "msg-1", p.MessageID)
		assert.Equal(t, "hello", p.Delta)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{"type": `))
		assert.Error(t, err)
	})

	t.Run("rejects an envelope without a type", func(t *testing.T) {
		_, err := Parse([]byte(`{"event_id": "evt-2", "session_id": "s"}`))
		assert.Error(t, err)
	})

	t.Run("accepts unknown event types", func(t *testing.T) {
		// Forward compatibility: the envelope parses; consumers decide
		// whether to handle the type.
		e, err := Parse([]byte(`{"type": "brand_new_thing", "event_id": "evt-3"}`))
		require.NoError(t, err)
		assert.Equal(t, EventType("brand_new_thing"), e.Type)
		assert.False(t, Known(e.Type))
	})

	t.Run("tolerates a missing payload", func(t *testing.T) {
		e, err := Parse([]byte(`{"type": "agent_message_end"}`))
		require.NoError(t, err)

		p, err := e.MessageEnd()
		require.NoError(t, err)
		assert.Empty(t, p.MessageID)
		assert.Empty(t, p.Content)
	})
}

func TestEventTime(t *testing.T) {
	t.Run("parses RFC3339Nano timestamps", func(t *testing.T) {
		e := Event{Timestamp: "2026-08-29T10:15:04.5Z"}
		got := e.Time()
		assert.Equal(t, time.Date(2026, 8, 29, 10, 15, 4, 500_000_000, time.UTC), got.UTC())
	})

	t.Run("returns zero time for missing or malformed timestamps", func(t *testing.T) {
		assert.True(t, Event{}.Time().IsZero())
		assert.True(t, Event{Timestamp: "yesterday"}.Time().IsZero())
	})
}

func TestTypedPayloadDecoding(t *testing.T) {
	t.Run("decodes tool_call_started with raw arguments", func(t *testing.T) {
		e := Event{
			Type:    EventTypeToolCallStarted,
			Payload: []byte(`{"tool_call_id": "tc-1", "tool_name": "search", "arguments": {"query": "foo"}}`),
		}
		p, err := e.ToolCallStarted()
		require.NoError(t, err)
		assert.Equal(t, "tc-1", p.ToolCallID)
		assert.Equal(t, "search", p.ToolName)
		assert.JSONEq(t, `{"query": "foo"}`, string(p.Arguments))
	})

	t.Run("decodes workflow_started with declared steps", func(t *testing.T) {
		e := Event{
			Type:    EventTypeWorkflowStarted,
			Payload: []byte(`{"run_id": "run-1", "workflow_name": "triage", "steps": ["fetch", "analyze"]}`),
		}
		p, err := e.WorkflowStarted()
		require.NoError(t, err)
		assert.Equal(t, "run-1", p.RunID)
		assert.Equal(t, []string{"fetch", "analyze"}, p.Steps)
	})

	t.Run("surfaces payload shape mismatches as errors", func(t *testing.T) {
		e := Event{
			Type:    EventTypeRunRetry,
			Payload: []byte(`{"attempt": "three"}`),
		}
		_, err := e.RunRetry()
		assert.Error(t, err)
	})
}

func TestEventTypes(t *testing.T) {
	t.Run("all declared types are known", func(t *testing.T) {
		for _, typ := range Types() {
			assert.True(t, Known(typ), "type %s should be known", typ)
		}
	})

	t.Run("session channel name is deterministic", func(t *testing.T) {
		assert.Equal(t, "session:sess-1", SessionChannel("sess-1"))
	})
}
