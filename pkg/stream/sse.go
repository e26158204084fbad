package stream

import (
	"bufio"
	"io"
	"strings"
)

// Frame is one server-sent-event frame. Event is the frame's declared
// name ("" for default/unnamed frames); Data is the joined data payload.
type Frame struct {
	Event string
	Data  []byte
}

// FrameReader incrementally parses text/event-stream frames from a
// response body. It handles named and unnamed frames, multi-line data,
// and comment lines; id: and retry: fields are ignored (reconnect
// timing is fixed client-side).
type FrameReader struct {
	scanner *bufio.Scanner
}

// NewFrameReader wraps an SSE response body. Individual frames of up
// to 2MB are supported — large tool results can exceed the default
// scanner buffer.
func NewFrameReader(r io.Reader) *FrameReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 2*1024*1024)
	return &FrameReader{scanner: s}
}

// Next returns the next complete frame. It blocks until a frame's
// terminating blank line arrives, and returns io.EOF when the stream
// ends cleanly or the underlying read error otherwise.
func (fr *FrameReader) Next() (Frame, error) {
	var eventName string
	var dataLines []string

	for fr.scanner.Scan() {
		line := fr.scanner.Text()
		if line == "" {
			if len(dataLines) == 0 {
				eventName = ""
				continue
			}
			return Frame{Event: eventName, Data: []byte(strings.Join(dataLines, "\n"))}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			eventName = strings.TrimSpace(name)
			continue
		}
		if part, ok := strings.CutPrefix(line, "data:"); ok {
			part = strings.TrimPrefix(part, " ")
			dataLines = append(dataLines, part)
		}
		// Other fields (id:, retry:) are intentionally ignored.
	}

	if err := fr.scanner.Err(); err != nil {
		return Frame{}, err
	}
	// Stream ended; a final unterminated frame is still delivered.
	if len(dataLines) > 0 {
		return Frame{Event: eventName, Data: []byte(strings.Join(dataLines, "\n"))}, nil
	}
	return Frame{}, io.EOF
}
