package vtparser

import "testing"

func collect(c *Console, buf []byte) []Event {
	var events []Event
	c.Write(buf, func(e Event) { events = append(events, e) })
	return events
}

func TestPlainTextEmitsCharEvents(t *testing.T) {
	c := New(10, 3)
	events := collect(c, []byte("hi"))
	if len(events) != 2 {
		t.Fatalf("expected 2 char events, got %d", len(events))
	}
	if events[0].Kind != EventChar || events[0].Char != 'h' || events[0].X != 0 || events[0].Y != 0 {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Char != 'i' || events[1].X != 1 {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestCursorPositionCSI(t *testing.T) {
	c := New(10, 10)
	collect(c, []byte("\x1b[5;3H"))
	if c.cursorX != 2 || c.cursorY != 4 {
		t.Fatalf("expected cursor at (2,4), got (%d,%d)", c.cursorX, c.cursorY)
	}
}

func TestSGRSetsForegroundColor(t *testing.T) {
	c := New(10, 10)
	events := collect(c, []byte("\x1b[31mx"))
	if len(events) != 1 || events[0].Kind != EventChar {
		t.Fatalf("expected 1 char event, got %+v", events)
	}
	if events[0].Color.Ansi256() != 1 {
		t.Fatalf("expected fg color index 1, got %d", events[0].Color.Ansi256())
	}
}

func TestSGRTrueColor(t *testing.T) {
	c := New(10, 10)
	events := collect(c, []byte("\x1b[38;2;10;20;30mx"))
	r, g, b := events[0].Color.RGB()
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("expected rgb(10,20,30), got (%d,%d,%d)", r, g, b)
	}
}

func TestEraseLineWholeRow(t *testing.T) {
	c := New(10, 10)
	c.cursorX, c.cursorY = 4, 2
	events := collect(c, []byte("\x1b[2K"))
	if len(events) != 1 || events[0].Kind != EventRect {
		t.Fatalf("expected single rect event, got %+v", events)
	}
	if events[0].X != 0 || events[0].Y != 2 || events[0].W != 10 || events[0].H != 1 {
		t.Fatalf("unexpected rect: %+v", events[0])
	}
}

func TestAlternateScreenToggle(t *testing.T) {
	c := New(10, 10)
	events := collect(c, []byte("\x1b[?1049h"))
	if len(events) != 1 || events[0].Kind != EventScreenBuffer || !events[0].Alternate || !events[0].Clear {
		t.Fatalf("unexpected events: %+v", events)
	}

	events = collect(c, []byte("\x1b[?1049l"))
	if len(events) != 1 || events[0].Alternate {
		t.Fatalf("expected leaving alternate screen, got %+v", events)
	}
}

func TestAlternateScreenToggleIsIdempotent(t *testing.T) {
	c := New(10, 10)
	collect(c, []byte("\x1b[?1049h"))
	events := collect(c, []byte("\x1b[?1049h"))
	if len(events) != 0 {
		t.Fatalf("expected no event re-entering an already-alternate screen, got %+v", events)
	}
}

func TestLineFeedAtBottomRowScrolls(t *testing.T) {
	c := New(5, 2)
	c.cursorY = 1
	events := collect(c, []byte("\n"))
	if len(events) != 2 {
		t.Fatalf("expected move+rect, got %+v", events)
	}
	if events[0].Kind != EventMove || events[0].FromY != 1 || events[0].ToY != 0 || events[0].H != 1 {
		t.Fatalf("unexpected move event: %+v", events[0])
	}
	if events[1].Kind != EventRect || events[1].Y != 1 {
		t.Fatalf("unexpected rect event: %+v", events[1])
	}
	if c.cursorY != 1 {
		t.Fatalf("cursor should stay pinned to last row, got %d", c.cursorY)
	}
}

func TestResizeClampsCursor(t *testing.T) {
	c := New(10, 10)
	c.cursorX, c.cursorY = 9, 9
	c.Resize(4, 4)
	if c.cursorX != 3 || c.cursorY != 3 {
		t.Fatalf("expected cursor clamped to (3,3), got (%d,%d)", c.cursorX, c.cursorY)
	}
}

func TestUTF8MultibyteCharAdvancesOneCell(t *testing.T) {
	c := New(10, 10)
	events := collect(c, []byte("é"))
	if len(events) != 1 || events[0].Char != 'é' {
		t.Fatalf("expected single multi-byte char event, got %+v", events)
	}
	if c.cursorX != 1 {
		t.Fatalf("expected cursor to advance by one cell, got %d", c.cursorX)
	}
}
