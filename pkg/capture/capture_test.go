package capture

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlens/agentlens/pkg/events"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecorderRoundtrip(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	in := []events.Event{
		{EventID: "e1", SessionID: "s1", Timestamp: "2026-08-29T10:00:00Z",
			Type: events.EventTypeSessionStarted, Payload: []byte(`{"run_id":"r1"}`)},
		{EventID: "e2", SessionID: "s1", Timestamp: "2026-08-29T10:00:01Z",
			Type: events.EventTypeAgentMessageDelta, Payload: []byte(`{"message_id":"m1","delta":"hi"}`)},
		{EventID: "e3", SessionID: "s1", Timestamp: "2026-08-29T10:00:02Z",
			Type: events.EventTypeSessionEnded, Payload: []byte(`{"run_id":"r1","status":"completed"}`)},
	}
	for _, e := range in {
		require.NoError(t, r.Append(ctx, e))
	}

	out, err := r.Events(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "e1", out[0].EventID)
	assert.Equal(t, events.EventTypeAgentMessageDelta, out[1].Type)
	assert.JSONEq(t, `{"message_id":"m1","delta":"hi"}`, string(out[1].Payload))
	assert.Equal(t, "e3", out[2].EventID, "arrival order must be preserved")
}

func TestRecorderSessionIsolation(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, events.Event{
		EventID: "a1", SessionID: "sess-a", Type: events.EventTypeAgentThought, Timestamp: "t"}))
	require.NoError(t, r.Append(ctx, events.Event{
		EventID: "b1", SessionID: "sess-b", Type: events.EventTypeAgentThought, Timestamp: "t"}))
	require.NoError(t, r.Append(ctx, events.Event{
		EventID: "a2", SessionID: "sess-a", Type: events.EventTypeAgentThought, Timestamp: "t"}))

	a, err := r.Events(ctx, "sess-a")
	require.NoError(t, err)
	assert.Len(t, a, 2)

	n, err := r.Count(ctx, "sess-b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := r.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-a", "sess-b"}, ids)
}

func TestRecorderUnknownSession(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	out, err := r.Events(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, out)

	n, err := r.Count(ctx, "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}
