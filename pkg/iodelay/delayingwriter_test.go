package iodelay

import (
	"errors"
	"testing"
)

// blockingSink accepts up to `cap` bytes per Write call before
// returning ErrWouldBlock, simulating a non-blocking descriptor that
// isn't always ready.
type blockingSink struct {
	accepted []byte
	cap      int
	blocked  bool
	capped   bool
}

func (s *blockingSink) Write(p []byte) (int, error) {
	if s.blocked {
		return 0, ErrWouldBlock
	}
	if s.capped {
		s.capped = false
		return 0, ErrWouldBlock
	}
	n := len(p)
	if s.cap > 0 && n > s.cap {
		n = s.cap
		s.capped = true
	}
	s.accepted = append(s.accepted, p[:n]...)
	return n, nil
}

func TestWriteAlwaysReportsFullLength(t *testing.T) {
	sink := &blockingSink{blocked: true}
	dw := New(sink)

	n, err := dw.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected Write to report 5 bytes accepted, got %d", n)
	}
	if !dw.Pending() {
		t.Fatalf("expected bytes to be queued while sink is blocked")
	}
}

func TestDrainMakesProgressWhenUnblocked(t *testing.T) {
	sink := &blockingSink{blocked: true}
	dw := New(sink)
	if _, err := dw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	sink.blocked = false
	progressed, err := dw.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if !progressed {
		t.Fatalf("expected Drain to report progress once unblocked")
	}
	if dw.Pending() {
		t.Fatalf("expected queue to drain fully")
	}
	if string(sink.accepted) != "hello" {
		t.Fatalf("expected sink to receive %q, got %q", "hello", sink.accepted)
	}
}

func TestPartialWriteQueuesRemainder(t *testing.T) {
	sink := &blockingSink{cap: 2}
	dw := New(sink)

	n, err := dw.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected full length reported, got %d", n)
	}
	if string(sink.accepted) != "he" {
		t.Fatalf("expected sink to accept only 2 bytes first, got %q", sink.accepted)
	}
	if !dw.Pending() {
		t.Fatalf("expected remainder to be queued")
	}

	sink.cap = 0
	if _, err := dw.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if string(sink.accepted) != "hello" {
		t.Fatalf("expected full content eventually written, got %q", sink.accepted)
	}
}

type erroringSink struct{}

func (erroringSink) Write([]byte) (int, error) { return 0, errors.New("boom") }

func TestNonWouldBlockErrorSurfaces(t *testing.T) {
	dw := New(erroringSink{})
	if _, err := dw.Write([]byte("x")); err == nil {
		t.Fatalf("expected a real error to surface")
	}
}
