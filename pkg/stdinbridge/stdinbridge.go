// Package stdinbridge adapts blocking os.Stdin reads into the reactor's
// non-blocking world. Host stdin can't be made non-blocking safely (it
// may be a tty shared with other processes), so — exactly like the
// original's MioStdin — a dedicated goroutine blocks on stdin.Read and
// forwards chunks over a channel, signalling the reactor through an
// eventfd registered as an ordinary readable descriptor. Grounded on
// original_source/src/stdin.rs's Registration/Receiver pair, adapted
// from mio's Registration to a raw Linux eventfd since pkg/reactor
// drives unix.EpollWait directly.
package stdinbridge

import (
	"os"

	"golang.org/x/sys/unix"
)

// Bridge reads os.Stdin on a background goroutine and exposes an
// eventfd the reactor can poll for readability, plus a channel carrying
// the bytes actually read.
type Bridge struct {
	efd  int
	in   chan []byte
	done chan struct{}
}

// New starts the background reader goroutine and returns a Bridge ready
// to register with a reactor via Fd().
func New() (*Bridge, error) {
	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		efd:  efd,
		in:   make(chan []byte, 64),
		done: make(chan struct{}),
	}

	go b.readLoop()

	return b, nil
}

func (b *Bridge) readLoop() {
	defer close(b.done)

	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			b.in <- chunk
			b.signal()
		}
		if err != nil {
			close(b.in)
			return
		}
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

// Drain acknowledges the eventfd's readiness (required for edge-
// triggered epoll to re-arm) and returns every chunk buffered so far,
// plus whether the stdin stream has closed (EOF), matching spec.md's
// "stdin closing" shutdown path.
func (b *Bridge) Drain() (chunks [][]byte, closed bool) {
	var ack [8]byte
	for {
		_, err := unix.Read(b.efd, ack[:])
		if err != nil {
			break
		}
	}

	for {
		select {
		case chunk, ok := <-b.in:
			if !ok {
				return chunks, true
			}
			chunks = append(chunks, chunk)
		default:
			return chunks, false
		}
	}
}

// Close releases the eventfd. The reader goroutine exits on its own
// once os.Stdin.Read returns (it cannot be interrupted while blocked).
func (b *Bridge) Close() error {
	return unix.Close(b.efd)
}
