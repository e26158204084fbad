package stream

import "time"

// Backoff computes reconnect delays: linear in the attempt count,
// capped at Cap. Attempts are unbounded — the stream retries forever
// until the manager is closed or the session changes.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff returns the standard reconnect policy: 3s per attempt,
// capped at 15s.
func DefaultBackoff() Backoff {
	return Backoff{Base: 3 * time.Second, Cap: 15 * time.Second}
}

// Delay returns the wait before the given reconnect attempt (1-indexed):
// min(Base*attempt, Cap).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Base * time.Duration(attempt)
	if d > b.Cap {
		return b.Cap
	}
	return d
}
