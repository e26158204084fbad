package stores

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlens/agentlens/pkg/events"
)

func TestMessageStoreMerging(t *testing.T) {
	t.Run("deltas concatenate onto the open record instead of appending", func(t *testing.T) {
		s := NewMessageStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 0, `{"message_id":"m1","role":"assistant"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 10, `{"message_id":"m1","delta":"Hello"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 20, `{"message_id":"m1","delta":", "}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 30, `{"message_id":"m1","delta":"world"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "Hello, world", msgs[0].Content)
		assert.Equal(t, "assistant", msgs[0].Role)
		assert.False(t, msgs[0].Terminal)
	})

	t.Run("end marks the record terminal and stops further merging", func(t *testing.T) {
		s := NewMessageStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 0, `{"message_id":"m1"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 10, `{"message_id":"m1","delta":"partial"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageEnd, 20, `{"message_id":"m1","content":"final text"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.True(t, msgs[0].Terminal)
		assert.Equal(t, "final text", msgs[0].Content, "end content replaces accumulated deltas")

		// A straggler delta for the closed id starts a fresh record.
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 30, `{"message_id":"m1","delta":"late"}`))
		msgs = s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "final text", msgs[0].Content)
		assert.Equal(t, "late", msgs[1].Content)
		assert.False(t, msgs[1].Terminal)
	})

	t.Run("end without content keeps the accumulated deltas", func(t *testing.T) {
		s := NewMessageStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 0, `{"message_id":"m1"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 10, `{"message_id":"m1","delta":"kept"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageEnd, 20, `{"message_id":"m1"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "kept", msgs[0].Content)
		assert.True(t, msgs[0].Terminal)
	})

	t.Run("delta with no preceding start seeds a new record", func(t *testing.T) {
		s := NewMessageStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 0, `{"message_id":"orphan","delta":"frag"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 10, `{"message_id":"orphan","delta":"ment"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "fragment", msgs[0].Content)
	})

	t.Run("terminal event with no preceding start is still recorded", func(t *testing.T) {
		s := NewMessageStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageEnd, 0, `{"message_id":"m9","content":"done","error":"timeout"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.True(t, msgs[0].Terminal)
		assert.Equal(t, "done", msgs[0].Content)
		assert.Equal(t, "timeout", msgs[0].Error)
	})

	t.Run("interleaved message ids merge independently", func(t *testing.T) {
		s := NewMessageStore(10)
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 0, `{"message_id":"a"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 5, `{"message_id":"b"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 10, `{"message_id":"a","delta":"A1"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 15, `{"message_id":"b","delta":"B1"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 20, `{"message_id":"a","delta":"A2"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "A1A2", msgs[0].Content)
		assert.Equal(t, "B1", msgs[1].Content)
	})
}

func TestMessageStoreBound(t *testing.T) {
	t.Run("evicts oldest records past the bound", func(t *testing.T) {
		s := NewMessageStore(3)
		for i := 0; i < 6; i++ {
			s.Apply(evt(t, events.EventTypeAgentMessageEnd, i*10,
				fmt.Sprintf(`{"message_id":"m%d","content":"c%d"}`, i, i)))
		}
		msgs := s.Messages()
		require.Len(t, msgs, 3)
		assert.Equal(t, "m3", msgs[0].MessageID)
		assert.Equal(t, "m5", msgs[2].MessageID)
	})

	t.Run("deltas for an evicted record do not resurrect it", func(t *testing.T) {
		s := NewMessageStore(2)
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 0, `{"message_id":"old"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageEnd, 10, `{"message_id":"x1","content":"1"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageEnd, 20, `{"message_id":"x2","content":"2"}`))

		// "old" has been evicted; its late delta opens a new record.
		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 30, `{"message_id":"old","delta":"late"}`))
		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "old", msgs[1].MessageID)
		assert.Equal(t, "late", msgs[1].Content)
	})

	t.Run("eviction by a duplicate id still unindexes the evicted record", func(t *testing.T) {
		// The second start for "b" evicts "a" without growing the index,
		// so the stale pointer has to be cleared by the eviction itself.
		s := NewMessageStore(2)
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 0, `{"message_id":"a"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 10, `{"message_id":"b"}`))
		s.Apply(evt(t, events.EventTypeAgentMessageStart, 20, `{"message_id":"b"}`))

		s.Apply(evt(t, events.EventTypeAgentMessageDelta, 30, `{"message_id":"a","delta":"still shown"}`))

		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "a", msgs[1].MessageID, "orphan delta seeds a visible record, it does not vanish")
		assert.Equal(t, "still shown", msgs[1].Content)
	})
}

func TestMessageStoreReset(t *testing.T) {
	s := NewMessageStore(10)
	s.Apply(evt(t, events.EventTypeAgentMessageEnd, 0, `{"message_id":"m1","content":"x"}`))
	require.Equal(t, 1, s.Len())

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Messages())
}
