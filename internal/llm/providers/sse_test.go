package providers

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestSSEScanner(t *testing.T) {
	t.Run("data events", func(t *testing.T) {
		body := "data: one\n\ndata: two\n\n"
		s := NewSSEScanner(strings.NewReader(body))

		var got []string
		for s.Scan() {
			ev := s.Event()
			if ev.Type != "data" {
				t.Errorf("type = %q, want data", ev.Type)
			}
			got = append(got, ev.Data)
		}
		if len(got) != 2 || got[0] != "one" || got[1] != "two" {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("named events", func(t *testing.T) {
		body := "event: ping\ndata: {}\n\n"
		s := NewSSEScanner(strings.NewReader(body))
		if !s.Scan() {
			t.Fatal("expected event")
		}
		if ev := s.Event(); ev.Type != "ping" || ev.Data != "{}" {
			t.Fatalf("got %+v", ev)
		}
	})

	t.Run("crlf and trailing event without blank line", func(t *testing.T) {
		body := "data: a\r\n\r\ndata: b"
		s := NewSSEScanner(strings.NewReader(body))

		var got []string
		for s.Scan() {
			got = append(got, s.Event().Data)
		}
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		s := NewSSEScanner(strings.NewReader(""))
		if s.Scan() {
			t.Fatal("expected no events")
		}
		if s.Err() != nil {
			t.Fatalf("clean end of stream, got %v", s.Err())
		}
	})

	t.Run("read error exposed", func(t *testing.T) {
		body := io.MultiReader(
			strings.NewReader("data: a\n\n"),
			iotest.ErrReader(errors.New("boom")),
		)
		s := NewSSEScanner(body)
		if !s.Scan() {
			t.Fatal("expected the event before the failure")
		}
		if s.Scan() {
			t.Fatal("expected scanning to stop at the failure")
		}
		if s.Err() == nil {
			t.Fatal("expected the underlying read error")
		}
	})
}
