// Package eventloop implements the single poll-multiplexed driver tying
// together the reactor, the stdin bridge, the mouse/input decoder, and
// the workspace: spec.md §4.7's "Event loop" component. Grounded on
// original_source/src/main.rs's `'main: loop` body, restructured from a
// mio Events/Token match into pkg/reactor's integer-token dispatch.
package eventloop

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/jD91mZM2/termwm/pkg/config"
	"github.com/jD91mZM2/termwm/pkg/inputdecoder"
	"github.com/jD91mZM2/termwm/pkg/iodelay"
	"github.com/jD91mZM2/termwm/pkg/ptyproc"
	"github.com/jD91mZM2/termwm/pkg/reactor"
	"github.com/jD91mZM2/termwm/pkg/signalbridge"
	"github.com/jD91mZM2/termwm/pkg/stdinbridge"
	"github.com/jD91mZM2/termwm/pkg/workspace"
)

const (
	tokenSignal  = 0
	tokenStdin   = 1
	tokenPtyBase = 2
)

// Loop owns the reactor, the stdin bridge, and the live set of windows
// registered with the reactor. The event loop is the sole mutable
// owner of the workspace (spec.md §9), so none of its methods are safe
// to call concurrently.
type Loop struct {
	reactor *reactor.Reactor
	stdin   *stdinbridge.Bridge
	signal  *signalbridge.Bridge
	ws      *workspace.Workspace
	decoder *inputdecoder.Decoder
	host    *os.File
	log     *zap.Logger

	registered map[workspace.Token]bool
}

// New wires a fresh reactor, stdin bridge, and SIGWINCH bridge to ws,
// writing redraw output to host (conventionally os.Stdout, the
// compositor's screen; also queried for size on every SIGWINCH).
func New(ws *workspace.Workspace, host *os.File, log *zap.Logger) (*Loop, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("create reactor: %w", err)
	}

	bridge, err := stdinbridge.New()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create stdin bridge: %w", err)
	}
	if err := r.Add(bridge.Fd(), tokenStdin, reactor.Readable); err != nil {
		r.Close()
		bridge.Close()
		return nil, fmt.Errorf("register stdin bridge: %w", err)
	}

	sigBridge, err := signalbridge.New()
	if err != nil {
		r.Close()
		bridge.Close()
		return nil, fmt.Errorf("create signal bridge: %w", err)
	}
	if err := r.Add(sigBridge.Fd(), tokenSignal, reactor.Readable); err != nil {
		r.Close()
		bridge.Close()
		sigBridge.Close()
		return nil, fmt.Errorf("register signal bridge: %w", err)
	}

	return &Loop{
		reactor:    r,
		stdin:      bridge,
		signal:     sigBridge,
		ws:         ws,
		decoder:    inputdecoder.New(),
		host:       host,
		log:        log,
		registered: make(map[workspace.Token]bool),
	}, nil
}

// Close releases the reactor, stdin bridge, and signal bridge.
func (l *Loop) Close() error {
	l.stdin.Close()
	l.signal.Close()
	return l.reactor.Close()
}

func ptyToken(tok workspace.Token) int { return tokenPtyBase + int(tok) }

// registerWindow adds a newly-spawned window's pty to the reactor.
func (l *Loop) registerWindow(tok workspace.Token) error {
	w, ok := l.ws.Window(tok)
	if !ok {
		return nil
	}
	if err := l.reactor.Add(w.Fd(), ptyToken(tok), reactor.Readable|reactor.Writable); err != nil {
		return fmt.Errorf("register window %d: %w", tok, err)
	}
	l.registered[tok] = true
	return nil
}

func (l *Loop) deregisterWindow(tok workspace.Token, fd int) {
	if l.registered[tok] {
		_ = l.reactor.Remove(fd)
		delete(l.registered, tok)
	}
}

// Run redraws once to paint the initial idle screen, then services
// readiness events until every window has closed, at which point it
// returns nil (spec.md's "exit the loop cleanly").
func (l *Loop) Run() error {
	if err := l.redraw(); err != nil {
		return err
	}

	var last time.Time = now()
	var timeout *time.Duration
	buf := make([]unix.EpollEvent, 64)
	readBuf := make([]byte, 1024)

	for {
		events, err := l.reactor.Wait(buf, timeout)
		if err != nil {
			return fmt.Errorf("reactor wait: %w", err)
		}

		for _, ev := range events {
			switch {
			case ev.Token == tokenSignal:
				if err := l.handleSignal(); err != nil {
					return err
				}

			case ev.Token == tokenStdin:
				if err := l.handleStdin(); err != nil {
					return err
				}

			case ev.Token >= tokenPtyBase:
				tok := workspace.Token(ev.Token - tokenPtyBase)
				done, err := l.handlePty(tok, ev.Readiness, readBuf)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}

		elapsed := now().Sub(last)
		if elapsed >= config.RedrawInterval {
			if err := l.redraw(); err != nil {
				return err
			}
			last = now()
			timeout = nil
		} else {
			remaining := config.RedrawInterval - elapsed
			timeout = &remaining
		}
	}
}

// now is isolated in its own function so the rest of Run reads like the
// original's Instant-based cadence tracking.
func now() time.Time { return time.Now() }

func (l *Loop) redraw() error {
	l.ws.Render()
	if err := l.ws.Draw(l.host); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	return nil
}

// handleSignal re-queries the host terminal's size on SIGWINCH and
// resizes the workspace to match, pulling any window whose origin fell
// outside the new bounds back onto the screen (workspace.Resize's
// per-window ClampOrigin pass).
func (l *Loop) handleSignal() error {
	if !l.signal.Drain() {
		return nil
	}

	size, err := ptyproc.HostSize(l.host)
	if err != nil {
		return fmt.Errorf("query host terminal size on resize: %w", err)
	}
	l.ws.Resize(int(size.Cols), int(size.Rows))
	return nil
}

func (l *Loop) handleStdin() error {
	chunks, _ := l.stdin.Drain()
	for _, chunk := range chunks {
		start := -1
		flush := func(end int) error {
			if start < 0 {
				return nil
			}
			_, err := l.ws.Write(chunk[start:end])
			start = -1
			return err
		}

		for i, b := range chunk {
			ev, haveEvent, pass := l.decoder.Feed(b)
			if haveEvent {
				if err := flush(i); err != nil {
					return err
				}
				if err := l.handleDecodedEvent(ev); err != nil {
					return err
				}
			}
			if pass {
				if start < 0 {
					start = i
				}
			} else if err := flush(i); err != nil {
				return err
			}
		}
		if err := flush(len(chunk)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) handleDecodedEvent(ev inputdecoder.Event) error {
	switch ev.Kind {
	case inputdecoder.EventUnsupported:
		_, err := l.ws.Write(ev.Bytes)
		return err
	case inputdecoder.EventMouse:
		tok, spawned, err := l.ws.Click(ev.M, ev.CX, ev.CY)
		if err != nil {
			return err
		}
		if spawned {
			if err := l.registerWindow(tok); err != nil {
				return err
			}
		}
	}
	return nil
}

// handlePty services one pty's readiness: draining delayed writes when
// writable, and reading/feeding child output when readable. It reports
// done=true when the last remaining window just closed.
func (l *Loop) handlePty(tok workspace.Token, ready reactor.Readiness, buf []byte) (done bool, err error) {
	w, ok := l.ws.Window(tok)
	if !ok {
		return false, nil
	}

	if ready&reactor.Writable != 0 {
		if _, err := w.DrainPty(); err != nil {
			return false, fmt.Errorf("drain window %d: %w", tok, err)
		}
	}

	if ready&reactor.Readable != 0 {
		for {
			n, readErr := w.ReadPty(buf)
			if readErr != nil {
				if iodelay.IsWouldBlock(readErr) {
					break
				}
				return l.closeWindow(tok, w)
			}
			if n == 0 {
				return l.closeWindow(tok, w)
			}
			if err := w.Write(buf[:n]); err != nil {
				return false, fmt.Errorf("apply window %d output: %w", tok, err)
			}
		}
	}

	return false, nil
}

func (l *Loop) closeWindow(tok workspace.Token, w interface{ Fd() int; Wait() error }) (bool, error) {
	if err := w.Wait(); err != nil {
		l.log.Debug("child wait returned an error", zap.Uint64("token", uint64(tok)), zap.Error(err))
	}
	l.deregisterWindow(tok, w.Fd())
	if err := l.ws.Remove(tok); err != nil {
		return false, fmt.Errorf("remove window %d: %w", tok, err)
	}
	return len(l.ws.Tokens()) == 0, nil
}

