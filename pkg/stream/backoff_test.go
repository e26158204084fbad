package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	t.Run("grows linearly until the cap", func(t *testing.T) {
		b := DefaultBackoff()
		assert.Equal(t, 3*time.Second, b.Delay(1))
		assert.Equal(t, 6*time.Second, b.Delay(2))
		assert.Equal(t, 9*time.Second, b.Delay(3))
		assert.Equal(t, 12*time.Second, b.Delay(4))
		assert.Equal(t, 15*time.Second, b.Delay(5))
	})

	t.Run("never exceeds the cap", func(t *testing.T) {
		b := DefaultBackoff()
		assert.Equal(t, 15*time.Second, b.Delay(6))
		assert.Equal(t, 15*time.Second, b.Delay(100))
		assert.Equal(t, 15*time.Second, b.Delay(1_000_000))
	})

	t.Run("clamps non-positive attempts to the first delay", func(t *testing.T) {
		b := Backoff{Base: 100 * time.Millisecond, Cap: time.Second}
		assert.Equal(t, 100*time.Millisecond, b.Delay(0))
		assert.Equal(t, 100*time.Millisecond, b.Delay(-3))
	})
}
