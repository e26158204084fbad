// Package stores holds the per-consumer reconciliation stores: pure
// reducers that fold the session event sequence into display-ready
// aggregate state. Stores have no knowledge of the transport; they are
// fed events by whichever consumer mounted them and are rebuilt from
// scratch on session change. All stores are safe for one writer and
// concurrent readers.
package stores

// Retention bounds. Configuration constants, never derived at runtime.
const (
	// DefaultTimelineMax caps the timeline event log.
	DefaultTimelineMax = 1000

	// DefaultConsoleMax caps the console line buffer.
	DefaultConsoleMax = 500

	// DefaultMessagesMax caps the merged-message list.
	DefaultMessagesMax = 200
)

// AppendCapped appends v and enforces the bounded-buffer policy: when
// the buffer exceeds max, the oldest elements are evicted first so the
// most recent max elements are always retained. Applied after every
// single insertion — memory stays bounded even under sustained bursts.
// max <= 0 disables the bound.
func AppendCapped[T any](buf []T, v T, max int) []T {
	buf = append(buf, v)
	if max > 0 && len(buf) > max {
		n := copy(buf, buf[len(buf)-max:])
		buf = buf[:n]
	}
	return buf
}
