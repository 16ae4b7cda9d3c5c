// Package reactor implements the single poll-multiplexed driver the
// event loop uses to wait on host stdin readiness, per-window pty
// readiness, and the redraw timeout, per spec.md §4.7 and §5 (a
// single-threaded reactor plus one stdin worker goroutine). It is the
// idiomatic-Go equivalent of the Rust original's mio::Poll: an epoll
// instance driven from golang.org/x/sys/unix, the pattern adapted from
// other_examples' raw-fd-driven terminal programs (seruman-hauntty,
// trevex-termbox-go) rather than mio itself.
package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// Readiness is a bitset of the I/O states a registered descriptor can
// become ready for.
type Readiness uint32

const (
	Readable Readiness = 1 << iota
	Writable
)

// Event is one readiness notification returned from Wait.
type Event struct {
	Token     int
	Readiness Readiness
}

// Reactor wraps a single Linux epoll instance, registering interest by
// an opaque integer token (mirroring spec.md's fixed readiness tokens:
// SIGNAL, STDIN, PTY+k) rather than by raw descriptor, so callers never
// need to map epoll events back to higher-level state themselves.
type Reactor struct {
	epfd int
}

// New creates a fresh epoll instance.
func New() (*Reactor, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Reactor{epfd: fd}, nil
}

// Close releases the epoll instance.
func (r *Reactor) Close() error {
	return unix.Close(r.epfd)
}

func toEpollEvents(ready Readiness) uint32 {
	var ev uint32
	if ready&Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if ready&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// Add registers fd for edge-triggered notification of the given
// readiness kinds, tagged with token.
func (r *Reactor) Add(fd int, token int, ready Readiness) error {
	ev := unix.EpollEvent{
		Events: toEpollEvents(ready) | unix.EPOLLET,
		Fd:     int32(token),
	}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

// Modify changes the readiness kinds registered for fd (token is
// re-specified since epoll_ctl(MOD) replaces the whole event struct).
func (r *Reactor) Modify(fd int, token int, ready Readiness) error {
	ev := unix.EpollEvent{
		Events: toEpollEvents(ready) | unix.EPOLLET,
		Fd:     int32(token),
	}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// Remove deregisters fd.
func (r *Reactor) Remove(fd int) error {
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks until at least one registered descriptor is ready, or
// timeout elapses (a nil timeout blocks indefinitely, matching
// spec.md's "timeout is None if the last redraw tick already elapsed").
// It returns the ready events with no further interpretation — dispatch
// is the event loop's job.
func (r *Reactor) Wait(buf []unix.EpollEvent, timeout *time.Duration) ([]Event, error) {
	ms := -1
	if timeout != nil {
		ms = int(timeout.Milliseconds())
		if ms < 0 {
			ms = 0
		}
	}

	n, err := unix.EpollWait(r.epfd, buf, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		var ready Readiness
		if buf[i].Events&unix.EPOLLIN != 0 {
			ready |= Readable
		}
		if buf[i].Events&unix.EPOLLOUT != 0 {
			ready |= Writable
		}
		events = append(events, Event{Token: int(buf[i].Fd), Readiness: ready})
	}
	return events, nil
}
