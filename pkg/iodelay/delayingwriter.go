// Package iodelay implements DelayingWriter, a wrapper around a
// non-blocking byte sink that buffers the unwritten tail of a write so
// the event loop never has to block on a slow reader (spec.md §4.2).
package iodelay

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// Sink is the non-blocking byte sink DelayingWriter wraps: a raw
// descriptor write that returns (0, ErrWouldBlock) instead of blocking
// when the descriptor isn't writable yet.
type Sink interface {
	io.Writer
}

// ErrWouldBlock is the sentinel a Sink's Write returns when the
// underlying descriptor isn't writable. It is never returned from
// DelayingWriter's own Write — see Write's doc comment.
var ErrWouldBlock = unix.EAGAIN

// IsWouldBlock reports whether err indicates the non-blocking write
// could not proceed right now (EAGAIN/EWOULDBLOCK), as opposed to a
// real failure.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// DelayingWriter wraps a non-blocking Sink with a tail queue of bytes
// that could not be written immediately. Callers are always told their
// full buffer was accepted; the truth of whether those bytes reached
// the sink yet lives in Drain.
type DelayingWriter struct {
	inner   Sink
	pending []byte
}

// New wraps inner in a DelayingWriter.
func New(inner Sink) *DelayingWriter {
	return &DelayingWriter{inner: inner}
}

// Drain attempts to write as much of the pending tail as the sink will
// accept right now, stopping at the first would-block or zero-byte
// write. It reports whether any progress was made, so callers (the
// event loop, on a writable-readiness notification) know whether to
// flush downstream state.
func (d *DelayingWriter) Drain() (bool, error) {
	wrote := false
	for len(d.pending) > 0 {
		n, err := d.inner.Write(d.pending)
		if err != nil {
			if IsWouldBlock(err) {
				break
			}
			return wrote, err
		}
		if n == 0 {
			break
		}
		d.pending = d.pending[n:]
		wrote = true
	}
	return wrote, nil
}

// Write drains any already-pending bytes, then — if the queue emptied —
// tries to write buf directly, retrying until the sink would-block or
// accepts zero bytes. Any unwritten suffix is appended to the pending
// queue. Write always reports len(buf) written: the caller's bytes are
// logically accepted even if physically still queued, matching
// spec.md's DelayingWriter contract.
func (d *DelayingWriter) Write(buf []byte) (int, error) {
	if _, err := d.Drain(); err != nil {
		return 0, err
	}

	written := 0
	if len(d.pending) == 0 {
		for written < len(buf) {
			n, err := d.inner.Write(buf[written:])
			if err != nil {
				if IsWouldBlock(err) {
					break
				}
				return written, err
			}
			if n == 0 {
				break
			}
			written += n
		}
	}

	if written < len(buf) {
		d.pending = append(d.pending, buf[written:]...)
	}

	return len(buf), nil
}

// Flush delegates to the inner sink if it implements io.Writer's
// counterpart. DelayingWriter's own pending queue is never flushed by
// this call — only Drain moves bytes out of it.
func (d *DelayingWriter) Flush() error {
	if f, ok := d.inner.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Pending reports whether any bytes are still queued for the sink. If
// true, the sink is not known to be writable and the event loop must
// re-call Drain on the next writable-readiness notification.
func (d *DelayingWriter) Pending() bool {
	return len(d.pending) > 0
}
