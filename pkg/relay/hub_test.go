package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannelListener tracks LISTEN state with the same idempotency as
// NotifyListener: Listen on an active channel is a no-op.
type fakeChannelListener struct {
	mu       sync.Mutex
	channels map[string]bool
	listens  int
}

func newFakeChannelListener() *fakeChannelListener {
	return &fakeChannelListener{channels: make(map[string]bool)}
}

func (f *fakeChannelListener) Listen(_ context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channels[channel] {
		return nil
	}
	f.channels[channel] = true
	f.listens++
	return nil
}

func (f *fakeChannelListener) Unlisten(_ context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, channel)
	return nil
}

func (f *fakeChannelListener) listening(channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channel]
}

func (f *fakeChannelListener) listenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listens
}

func TestHubSubscribeBroadcast(t *testing.T) {
	t.Run("delivers broadcasts to every channel subscriber", func(t *testing.T) {
		h := NewHub()
		ctx := context.Background()

		id1, ch1, err := h.Subscribe(ctx, "session:s1")
		require.NoError(t, err)
		defer h.Unsubscribe("session:s1", id1)

		id2, ch2, err := h.Subscribe(ctx, "session:s1")
		require.NoError(t, err)
		defer h.Unsubscribe("session:s1", id2)

		assert.Equal(t, 2, h.SubscriberCount("session:s1"))

		h.Broadcast("session:s1", []byte(`{"type":"agent_thought"}`))

		for _, ch := range []<-chan []byte{ch1, ch2} {
			select {
			case got := <-ch:
				assert.JSONEq(t, `{"type":"agent_thought"}`, string(got))
			case <-time.After(time.Second):
				t.Fatal("subscriber did not receive broadcast")
			}
		}
	})

	t.Run("does not cross channels", func(t *testing.T) {
		h := NewHub()
		ctx := context.Background()

		idA, chA, err := h.Subscribe(ctx, "session:a")
		require.NoError(t, err)
		defer h.Unsubscribe("session:a", idA)

		idB, chB, err := h.Subscribe(ctx, "session:b")
		require.NoError(t, err)
		defer h.Unsubscribe("session:b", idB)

		h.Broadcast("session:a", []byte(`x`))

		select {
		case <-chA:
		case <-time.After(time.Second):
			t.Fatal("channel a subscriber missed its event")
		}
		select {
		case <-chB:
			t.Fatal("channel b subscriber received a foreign event")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("broadcast to a channel with no subscribers is a no-op", func(t *testing.T) {
		h := NewHub()
		h.Broadcast("session:empty", []byte(`x`))
		assert.Zero(t, h.SubscriberCount("session:empty"))
	})
}

func TestHubUnsubscribe(t *testing.T) {
	t.Run("closes the subscriber queue", func(t *testing.T) {
		h := NewHub()
		id, ch, err := h.Subscribe(context.Background(), "session:s1")
		require.NoError(t, err)

		h.Unsubscribe("session:s1", id)

		_, open := <-ch
		assert.False(t, open)
		assert.Zero(t, h.SubscriberCount("session:s1"))
	})

	t.Run("unsubscribing twice is safe", func(t *testing.T) {
		h := NewHub()
		id, _, err := h.Subscribe(context.Background(), "session:s1")
		require.NoError(t, err)

		h.Unsubscribe("session:s1", id)
		h.Unsubscribe("session:s1", id)
		h.Unsubscribe("session:unknown", "nope")
	})
}

func TestHubListenRefCounting(t *testing.T) {
	t.Run("first subscriber listens, last unsubscribe unlistens", func(t *testing.T) {
		f := newFakeChannelListener()
		h := NewHub()
		h.listener = f

		id1, _, err := h.Subscribe(context.Background(), "session:s1")
		require.NoError(t, err)
		assert.True(t, f.listening("session:s1"))

		id2, _, err := h.Subscribe(context.Background(), "session:s1")
		require.NoError(t, err)
		assert.Equal(t, 1, f.listenCount(), "second subscriber must not re-issue LISTEN")

		h.Unsubscribe("session:s1", id1)
		assert.True(t, f.listening("session:s1"), "channel stays listened while a subscriber remains")

		h.Unsubscribe("session:s1", id2)
		require.Eventually(t, func() bool { return !f.listening("session:s1") },
			time.Second, time.Millisecond)
	})

	t.Run("resubscribe racing the trailing unlisten ends with LISTEN active", func(t *testing.T) {
		f := newFakeChannelListener()
		h := NewHub()
		h.listener = f

		const channel = "session:hot"
		for i := 0; i < 200; i++ {
			id1, _, err := h.Subscribe(context.Background(), channel)
			require.NoError(t, err)

			done := make(chan struct{})
			go func() {
				h.Unsubscribe(channel, id1)
				close(done)
			}()
			id2, _, err := h.Subscribe(context.Background(), channel)
			require.NoError(t, err)
			<-done

			require.Eventually(t, func() bool { return f.listening(channel) },
				time.Second, time.Millisecond,
				"iteration %d: live subscriber left on an unlistened channel", i)
			h.Unsubscribe(channel, id2)
		}
	})
}

func TestHubSlowSubscriber(t *testing.T) {
	h := NewHub()
	id, ch, err := h.Subscribe(context.Background(), "session:s1")
	require.NoError(t, err)
	defer h.Unsubscribe("session:s1", id)

	// Fill the queue past its depth; the overflow must be dropped
	// without blocking the broadcaster.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			h.Broadcast("session:s1", []byte(`x`))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}
