package providers

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent is one Server-Sent Event.
type SSEEvent struct {
	Type string
	Data string
}

// SSEScanner reads Server-Sent Events from a response body. Events are
// terminated by a blank line; only event: and data: fields are used by the
// OpenAI-compatible endpoints we talk to.
type SSEScanner struct {
	scanner *bufio.Scanner
	current SSEEvent
}

// NewSSEScanner wraps a reader in an SSE event scanner.
func NewSSEScanner(r io.Reader) *SSEScanner {
	sc := bufio.NewScanner(r)
	// Delta lines can exceed the default 64KB token limit on long responses.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEScanner{scanner: sc}
}

// Scan advances to the next event. It returns false at end of stream or on a
// read error.
func (s *SSEScanner) Scan() bool {
	var ev SSEEvent
	seen := false
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" {
			if seen {
				s.current = ev
				return true
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "data:"):
			ev.Data = strings.TrimSpace(line[len("data:"):])
			if ev.Type == "" {
				ev.Type = "data"
			}
			seen = true
		case strings.HasPrefix(line, "event:"):
			ev.Type = strings.TrimSpace(line[len("event:"):])
			seen = true
		}
	}
	if seen {
		s.current = ev
		return true
	}
	return false
}

// Event returns the event produced by the last successful Scan.
func (s *SSEScanner) Event() SSEEvent {
	return s.current
}

// Err returns the read error that ended scanning, if any. A dropped
// connection mid-stream surfaces here, not as a clean end of stream.
func (s *SSEScanner) Err() error {
	return s.scanner.Err()
}
