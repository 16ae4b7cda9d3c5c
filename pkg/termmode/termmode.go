// Package termmode scopes acquisition of host-terminal raw mode and the
// compositor's screen-takeover escape sequences, guaranteeing both are
// undone on every exit path — including a panic — exactly like the
// original's Restorer Drop guard (original_source/src/main.rs). Go has
// no destructors, so the equivalent here is a value whose Exit method
// the caller defers immediately after a successful Enter.
package termmode

import (
	"fmt"
	"io"

	"golang.org/x/term"
)

// enterSequence takes over the host screen: alternate screen buffer,
// hidden cursor, X10 mouse reporting with drag events.
const enterSequence = "\x1b[?1049h\x1b[?25l\x1b[?1000h\x1b[?1002h"

// exitSequence is the exact inverse, emitted in reverse order.
const exitSequence = "\x1b[?1002l\x1b[?1000l\x1b[?25h\x1b[?1049l"

// Session holds everything that must be undone when the compositor
// exits: the host fd's raw-mode state and the screen-takeover sequences
// written to out.
type Session struct {
	fd       int
	oldState *term.State
	out      io.Writer
}

// Enter puts fd into raw mode and writes the screen-takeover sequence to
// out. Callers must defer Exit immediately on success, including around
// any panic-recovery boundary, so the host terminal is never left in
// alternate-screen raw mode on a crash.
func Enter(fd int, out io.Writer) (*Session, error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}

	if _, err := io.WriteString(out, enterSequence); err != nil {
		_ = term.Restore(fd, oldState)
		return nil, fmt.Errorf("write screen-takeover sequence: %w", err)
	}

	return &Session{fd: fd, oldState: oldState, out: out}, nil
}

// Exit writes the inverse escape sequence and restores the host fd's
// prior terminal mode. It is safe to call from a deferred/recovered
// panic handler; errors are best-effort since there is nothing further
// to propagate to at shutdown.
func (s *Session) Exit() {
	_, _ = io.WriteString(s.out, exitSequence)
	_ = term.Restore(s.fd, s.oldState)
}
