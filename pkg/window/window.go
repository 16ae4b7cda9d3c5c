// Package window implements the spec's single-window unit: a pty-backed
// child process, its own VT parser and pair of screen grids (primary
// and alternate), geometry and drag/resize state, and ASCII-frame
// rendering into a shared framebuffer. Grounded on
// original_source/src/window.rs, with the Window/WindowInner split
// collapsed into one type — that split exists in the original purely to
// satisfy the Rust borrow checker around a closure borrowing self twice,
// a problem Go doesn't have.
package window

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jD91mZM2/termwm/pkg/cellmodel"
	"github.com/jD91mZM2/termwm/pkg/framebuffer"
	"github.com/jD91mZM2/termwm/pkg/iodelay"
	"github.com/jD91mZM2/termwm/pkg/ptyproc"
	"github.com/jD91mZM2/termwm/pkg/vtparser"
)

const (
	resizeLeft uint8 = 1 << iota
	resizeRight
	resizeBottom
)

// dragOffset records the point within a window's title row that was
// grabbed, so subsequent motion keeps that point under the cursor.
type dragOffset struct {
	relX, relY uint16
}

// Window is one pty-backed child presented as a framed rectangle on the
// shared framebuffer.
type Window struct {
	id uuid.UUID

	console *vtparser.Console
	proc    *ptyproc.Process
	writer  *iodelay.DelayingWriter

	log *zap.Logger

	x, y          uint16
	width, height uint16 // interior dimensions, excluding the 1-cell frame

	drag   *dragOffset
	resize uint8

	alternate          bool
	screen, screenOther [][]cellmodel.Cell
}

// New spawns cmd attached to a fresh pty and sizes the window to the
// given outer rectangle (width, height include the frame; interior
// size is width-2 by height-2, matching the original's convention).
func New(shell string, x, y, width, height uint16, log *zap.Logger) (*Window, error) {
	interiorW, interiorH := width-2, height-2

	proc, err := ptyproc.Start(exec.Command(shell), ptyproc.Winsize{Cols: interiorW, Rows: interiorH})
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", shell, err)
	}

	w := &Window{
		id:      uuid.New(),
		console: vtparser.New(int(interiorW), int(interiorH)),
		proc:    proc,
		writer:  iodelay.New(proc),
		log:     log,
		x:       x,
		y:       y,
		width:   interiorW,
		height:  interiorH,
		screen:      newScreen(interiorW, interiorH),
		screenOther: newScreen(interiorW, interiorH),
	}
	return w, nil
}

func newScreen(width, height uint16) [][]cellmodel.Cell {
	rows := make([][]cellmodel.Cell, height)
	for y := range rows {
		row := make([]cellmodel.Cell, width)
		for x := range row {
			row[x] = cellmodel.Space
		}
		rows[y] = row
	}
	return rows
}

// Geometry returns the window's current outer position and interior
// size, for read-only introspection (pkg/debugserver).
func (w *Window) Geometry() (x, y, width, height int) {
	return int(w.x), int(w.y), int(w.width), int(w.height)
}

// ID is a diagnostic identifier only (exposed over pkg/debugserver); it
// plays no part in window ordering or equality.
func (w *Window) ID() uuid.UUID { return w.id }

// Fd returns the underlying pty master descriptor, for registration
// with a reactor.
func (w *Window) Fd() int { return w.proc.Fd() }

// ReadPty performs one non-blocking read from the child's pty.
func (w *Window) ReadPty(buf []byte) (int, error) {
	return w.proc.Read(buf)
}

// WriteInput forwards host keystrokes to the child through the
// delaying writer, which never blocks the caller.
func (w *Window) WriteInput(buf []byte) (int, error) {
	return w.writer.Write(buf)
}

// DrainPty flushes previously-delayed writes once the pty becomes
// writable again.
func (w *Window) DrainPty() (bool, error) {
	return w.writer.Drain()
}

// Close tears down the child's pty descriptor.
func (w *Window) Close() error {
	return w.proc.Close()
}

// Wait reaps the child process.
func (w *Window) Wait() error {
	return w.proc.Wait()
}

// Resize applies a new interior size: grows/truncates every row to the
// new width (space-filled), grows/truncates the row count (full-space
// rows), and informs the pty of the new size. It never repositions x,y.
func (w *Window) Resize(width, height uint16) error {
	w.width, w.height = width, height
	w.screen = resizeScreen(w.screen, width, height)
	w.screenOther = resizeScreen(w.screenOther, width, height)
	w.console.Resize(int(width), int(height))
	return w.proc.SetSize(ptyproc.Winsize{Cols: width, Rows: height})
}

func resizeScreen(rows [][]cellmodel.Cell, width, height uint16) [][]cellmodel.Cell {
	out := make([][]cellmodel.Cell, height)
	for y := 0; y < int(height); y++ {
		var src []cellmodel.Cell
		if y < len(rows) {
			src = rows[y]
		}
		row := make([]cellmodel.Cell, width)
		for x := range row {
			if x < len(src) {
				row[x] = src[x]
			} else {
				row[x] = cellmodel.Space
			}
		}
		out[y] = row
	}
	return out
}

func (w *Window) get(x, y int) *cellmodel.Cell {
	if y >= int(w.height) {
		y = int(w.height) - 1
	}
	if y < 0 {
		y = 0
	}
	if x >= int(w.width) {
		x = int(w.width) - 1
	}
	if x < 0 {
		x = 0
	}
	return &w.screen[y][x]
}

// Write feeds buf through the window's VT parser, applying every
// emitted event to its own screen grid. Resize events (a child
// requesting a new screen size) are propagated through Resize; failure
// there is fatal per spec, since the pty can no longer be kept in sync
// with what the child believes its size to be.
func (w *Window) Write(buf []byte) error {
	var resizeErr error
	w.console.Write(buf, func(ev vtparser.Event) {
		if resizeErr != nil {
			return
		}
		switch ev.Kind {
		case vtparser.EventChar:
			c := w.get(ev.X, ev.Y)
			c.Content = ev.Char
			c.Flags = 0
			if ev.Bold {
				c.Flags |= cellmodel.FlagBold
			}
			if ev.Underlined {
				c.Flags |= cellmodel.FlagUnderline
			}
			c.Fg = ev.Color

		case vtparser.EventRect:
			for x := ev.X; x < ev.X+ev.W; x++ {
				for y := ev.Y; y < ev.Y+ev.H; y++ {
					c := w.get(x, y)
					c.Content = ' '
					c.Bg = ev.Color
				}
			}

		case vtparser.EventScreenBuffer:
			if w.alternate != ev.Alternate {
				w.alternate = ev.Alternate
				w.screen, w.screenOther = w.screenOther, w.screen
			}
			if ev.Clear {
				for _, row := range w.screen {
					for x := range row {
						row[x] = cellmodel.Space
					}
				}
			}

		case vtparser.EventMove:
			applyMove(w.screen, ev)

		case vtparser.EventResize:
			if err := w.Resize(uint16(ev.W), uint16(ev.H)); err != nil {
				resizeErr = err
			}

		case vtparser.EventTitle, vtparser.EventInput:
			// Ignored: termwm has no title bar or programmable-input
			// surface (spec.md Non-goals).
		}
	})
	return resizeErr
}

// applyMove block-copies the rectangle at (FromX,FromY) to (ToX,ToY),
// choosing iteration direction per axis so an overlapping move never
// reads a cell after it has already been overwritten: forward when the
// destination is at or below the source on that axis, backward
// otherwise.
func applyMove(screen [][]cellmodel.Cell, ev vtparser.Event) {
	forwardX := ev.ToX <= ev.FromX
	forwardY := ev.ToY <= ev.FromY

	for i := 0; i < ev.W; i++ {
		for j := 0; j < ev.H; j++ {
			relX, relY := i, j
			if !forwardX {
				relX = ev.W - 1 - i
			}
			if !forwardY {
				relY = ev.H - 1 - j
			}

			srcY, srcX := clampIndex(ev.FromY+relY, len(screen)), 0
			if srcY < len(screen) {
				srcX = clampIndex(ev.FromX+relX, len(screen[srcY]))
			}
			dstY := clampIndex(ev.ToY+relY, len(screen))
			dstX := clampIndex(ev.ToX+relX, len(screen[dstY]))

			screen[dstY][dstX] = screen[srcY][srcX]
		}
	}
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (w *Window) renderFrame(buf *framebuffer.Framebuffer, y uint16, start, middle, end rune) {
	buf.Set(int(w.x), int(y), cellmodel.FromRune(start))
	buf.Line(int(w.x)+1, int(y), int(w.width), cellmodel.FromRune(middle))
	buf.Set(int(w.x)+1+int(w.width), int(y), cellmodel.FromRune(end))
}

// Render paints the window's frame and interior screen into buf at its
// current position.
func (w *Window) Render(buf *framebuffer.Framebuffer) {
	y := w.y
	w.renderFrame(buf, y, '┌', '─', '┐')
	y++

	for _, row := range w.screen {
		buf.Set(int(w.x), int(y), cellmodel.FromRune('│'))
		buf.CopyFrom(int(w.x)+1, int(y), row)
		buf.Set(int(w.x)+1+int(w.width), int(y), cellmodel.FromRune('│'))
		y++
	}
	w.renderFrame(buf, y, '└', '─', '┘')
}

// Inside reports whether (x,y) hit-tests against this window: either it
// is mid-drag/mid-resize (which captures all further clicks regardless
// of position) or the point falls within x..x+width+2 by y..y+height+2
// inclusive, which is the outer frame plus one extra column and row.
func (w *Window) Inside(x, y uint16) bool {
	if w.drag != nil || w.resize != 0 {
		return true
	}
	return x >= w.x && y >= w.y && x <= w.x+w.width+2 && y <= w.y+w.height+2
}

// ClampOrigin pulls the window's origin back onto a screen of the given
// size, used after a host-terminal resize shrinks the workspace.
func (w *Window) ClampOrigin(screenWidth, screenHeight uint16) {
	if screenWidth > 0 && w.x > screenWidth-1 {
		w.x = screenWidth - 1
	}
	if screenHeight > 0 && w.y > screenHeight-1 {
		w.y = screenHeight - 1
	}
}

func satSub(a, b uint16) uint16 {
	if a < b {
		return 0
	}
	return a - b
}

// Click dispatches a translated mouse report to the window: continuing
// a drag or resize in progress, starting one from a frame-edge press, or
// forwarding an X10 mouse report to the child when front and clicked in
// the interior. front indicates this window is already frontmost (no
// raise is needed by the caller in that case).
func (w *Window) Click(front bool, m byte, x, y uint16) error {
	if w.drag != nil {
		w.x = satSub(x, w.drag.relX)
		w.y = satSub(y, w.drag.relY)
		if m&0b11 == 3 {
			w.drag = nil
		}
		return nil
	}

	if w.resize != 0 {
		width, height := w.width, w.height
		if w.resize&resizeLeft != 0 {
			width = uint16(int(w.width) + int(w.x) - int(x))
			w.x = x
		} else if w.resize&resizeRight != 0 {
			width = satSub(x, w.x+1)
		}
		if w.resize&resizeBottom != 0 {
			height = satSub(y, w.y+1)
		}

		if err := w.Resize(width, height); err != nil {
			return err
		}
		if err := w.proc.Signal(syscall.SIGWINCH); err != nil {
			w.log.Warn("failed to deliver resize signal to child", zap.Error(err))
		}

		if m&0b11 == 3 {
			w.resize = 0
		}
		return nil
	}

	localX := satSub(x, w.x)
	localY := satSub(y, w.y)

	if localY == 0 {
		w.drag = &dragOffset{relX: localX, relY: localY}
		return nil
	}

	if localX == 0 {
		w.resize |= resizeLeft
	} else if localX == 1+w.width {
		w.resize |= resizeRight
	}
	if localY == 1+w.height {
		w.resize |= resizeBottom
	}

	if w.resize == 0 && front {
		report := []byte{0x1b, '[', 'M', m, byte(32 + localX), byte(32 + localY)}
		if _, err := w.writer.Write(report); err != nil && !iodelay.IsWouldBlock(err) {
			return err
		}
	}
	return nil
}
