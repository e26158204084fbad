package stores

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlens/agentlens/pkg/events"
)

func TestConsoleStoreDerivation(t *testing.T) {
	t.Run("maps run_error to an error line with the event source", func(t *testing.T) {
		s := NewConsoleStore(10)
		s.Apply(evt(t, events.EventTypeRunError, 0,
			`{"message":"model unavailable","source":"llm"}`))

		lines := s.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, LevelError, lines[0].Level)
		assert.Equal(t, "model unavailable", lines[0].Message)
		assert.Equal(t, "llm", lines[0].Source)
	})

	t.Run("failed tool result is an error, successful one is info", func(t *testing.T) {
		s := NewConsoleStore(10)
		s.Apply(evt(t, events.EventTypeToolCallResult, 0, `{"tool_call_id":"tc1"}`))
		s.Apply(evt(t, events.EventTypeToolCallResult, 10, `{"tool_call_id":"tc2","error":"boom"}`))

		lines := s.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, LevelInfo, lines[0].Level)
		assert.Equal(t, LevelError, lines[1].Level)
		assert.Contains(t, lines[1].Message, "boom")
	})

	t.Run("retry and interruption surface as warnings", func(t *testing.T) {
		s := NewConsoleStore(10)
		s.Apply(evt(t, events.EventTypeRunRetry, 0, `{"attempt":2,"reason":"rate limited"}`))
		s.Apply(evt(t, events.EventTypeRunInterrupted, 10, `{}`))

		lines := s.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, LevelWarn, lines[0].Level)
		assert.Equal(t, LevelWarn, lines[1].Level)
	})

	t.Run("message and tool deltas are not logged", func(t *testing.T) {
		s := NewConsoleStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 0, `{"message_id":"m1","delta":"x"}`))
		s.Apply(evt(t, events.EventTypeToolCallDelta, 10, `{"tool_call_id":"tc1","delta":"y"}`))

		assert.Zero(t, s.Len())
	})

	t.Run("thoughts are debug level", func(t *testing.T) {
		s := NewConsoleStore(10)
		s.Apply(evt(t, events.EventTypeAgentThought, 0, `{"thought":"hmm"}`))

		lines := s.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, LevelDebug, lines[0].Level)
		assert.Equal(t, "hmm", lines[0].Message)
	})
}

func TestConsoleStoreFiltering(t *testing.T) {
	s := NewConsoleStore(20)
	s.Apply(evt(t, events.EventTypeAgentThought, 0, `{"thought":"debug line"}`))
	s.Apply(evt(t, events.EventTypeSessionStarted, 10, `{"run_id":"r1","agent_name":"a"}`))
	s.Apply(evt(t, events.EventTypeRunError, 20, `{"message":"bad"}`))
	s.Apply(evt(t, events.EventTypeRunRetry, 30, `{"attempt":1}`))

	t.Run("filter is a read-time projection", func(t *testing.T) {
		errs := s.Filtered(LevelError)
		require.Len(t, errs, 1)
		assert.Equal(t, "bad", errs[0].Message)

		// The underlying sequence is untouched.
		assert.Equal(t, 4, s.Len())
	})

	t.Run("multiple levels combine", func(t *testing.T) {
		got := s.Filtered(LevelWarn, LevelError)
		assert.Len(t, got, 2)
	})

	t.Run("empty filter returns everything", func(t *testing.T) {
		assert.Len(t, s.Filtered(), 4)
	})
}

func TestConsoleStoreBound(t *testing.T) {
	s := NewConsoleStore(5)
	for i := 0; i < 12; i++ {
		s.Apply(evt(t, events.EventTypeRunError, i*10, fmt.Sprintf(`{"message":"err %d"}`, i)))
	}

	lines := s.Lines()
	require.Len(t, lines, 5)
	assert.Equal(t, "err 7", lines[0].Message, "oldest lines evicted first")
	assert.Equal(t, "err 11", lines[4].Message)
}
