// Package ptyproc wraps github.com/creack/pty to satisfy the spec's
// external Pty collaborator (spec.md §6): opening a pty, spawning a
// child shell on its slave side, querying/setting window size, and
// handing the master back as a raw non-blocking descriptor so the
// reactor (pkg/reactor) can multiplex it without Go's runtime netpoller
// getting in the way.
package ptyproc

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Winsize holds the column and row counts of a pty window size.
type Winsize struct {
	Cols, Rows uint16
}

// Process is a spawned child attached to a pty master, with the master
// descriptor already switched to non-blocking raw I/O.
type Process struct {
	master *os.File
	fd     int
	cmd    *exec.Cmd
}

// Start opens a pty, spawns cmd on its slave side sized to ws, and
// returns a Process whose master descriptor is ready for non-blocking
// Read/Write. This is the Go equivalent of the original's
// `pseudoterm::openpty` + `prepare_cmd(...).spawn()` pair.
func Start(cmd *exec.Cmd, ws Winsize) (*Process, error) {
	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols})
	if err != nil {
		return nil, err
	}

	fd := int(master.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		master.Close()
		_ = cmd.Process.Kill()
		return nil, err
	}

	return &Process{master: master, fd: fd, cmd: cmd}, nil
}

// Fd returns the raw master descriptor, registered directly with
// pkg/reactor rather than through os.File's Read/Write (which would
// route through Go's runtime poller and hide the EAGAIN semantics
// pkg/iodelay depends on).
func (p *Process) Fd() int { return p.fd }

// Read performs a single non-blocking read from the pty master. A
// would-block condition is reported via iodelay.IsWouldBlock-compatible
// errors (unix.EAGAIN/EWOULDBLOCK); a zero-length successful read never
// happens for a pty (unlike a regular file), so callers treat (0, nil)
// the same as the original's "Ok(Some(0))": the child side closed.
func (p *Process) Read(buf []byte) (int, error) {
	return unix.Read(p.fd, buf)
}

// Write performs a single non-blocking write to the pty master,
// satisfying pkg/iodelay.Sink.
func (p *Process) Write(buf []byte) (int, error) {
	return unix.Write(p.fd, buf)
}

// SetSize applies a new window size to the pty, the non-blocking
// equivalent of spec.md's WinsizeSetter.set.
func (p *Process) SetSize(ws Winsize) error {
	return pty.Setsize(p.master, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols})
}

// Wait reaps the child process, matching spec.md's "reap the child"
// step on EOF/error.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}

// Signal delivers a signal to the child process, used to notify it of a
// SIGWINCH-equivalent resize (spec.md §4.4's click handler step 2).
func (p *Process) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}

// Close closes the pty master descriptor.
func (p *Process) Close() error {
	return p.master.Close()
}

// HostSize queries the window size of an already-open host terminal
// descriptor (used at startup and on SIGWINCH to size the workspace),
// the non-pty counterpart of SetSize.
func HostSize(f *os.File) (Winsize, error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return Winsize{}, err
	}
	return Winsize{Cols: ws.Col, Rows: ws.Row}, nil
}
