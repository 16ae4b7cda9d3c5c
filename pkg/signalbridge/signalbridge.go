// Package signalbridge adapts os/signal's channel-based SIGWINCH
// delivery into the reactor's epoll world, the same way pkg/stdinbridge
// adapts blocking stdin reads: a background goroutine receives from a
// signal channel and signals an eventfd the reactor can poll for
// readability. Grounded on other_examples/trevex-termbox-go's
// `signal.Notify(sigwinch, syscall.SIGWINCH)` pattern, adapted from a
// directly-polled channel to an eventfd since pkg/reactor drives
// unix.EpollWait directly rather than a select over channels.
package signalbridge

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// Bridge watches SIGWINCH on a background goroutine and exposes an
// eventfd the reactor can poll for readability.
type Bridge struct {
	efd int
	sig chan os.Signal
}

// New starts watching SIGWINCH and returns a Bridge ready to register
// with a reactor via Fd().
func New() (*Bridge, error) {
	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		efd: efd,
		sig: make(chan os.Signal, 1),
	}
	signal.Notify(b.sig, syscall.SIGWINCH)

	go b.watchLoop()

	return b, nil
}

func (b *Bridge) watchLoop() {
	for range b.sig {
		b.signal()
	}
}

func (b *Bridge) signal() {
	var raw [8]byte
	raw[0] = 1
	unix.Write(b.efd, raw[:])
}

// Fd returns the eventfd to register with a reactor for Readable
// interest.
func (b *Bridge) Fd() int { return b.efd }

// Drain acknowledges the eventfd's readiness (required to re-arm
// edge-triggered epoll) and reports whether a resize was pending.
func (b *Bridge) Drain() (pending bool) {
	var ack [8]byte
	for {
		_, err := unix.Read(b.efd, ack[:])
		if err != nil {
			break
		}
		pending = true
	}
	return pending
}

// Close stops watching SIGWINCH and releases the eventfd.
func (b *Bridge) Close() error {
	signal.Stop(b.sig)
	close(b.sig)
	return unix.Close(b.efd)
}
