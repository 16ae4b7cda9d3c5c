// Package workspace implements the insertion-ordered collection of
// windows that makes up one compositor surface: hit-testing, focus
// raising on click, spawn-on-empty-click, and painting the shared
// framebuffer. Grounded on original_source/src/workspace.rs, adapted
// from LinkedHashMap + mio registration to a Go map plus a parallel
// order slice, and from pkg/session/manager.go's mutex-guarded registry
// idiom for the concurrent-safety shape.
package workspace

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/jD91mZM2/termwm/pkg/cellmodel"
	"github.com/jD91mZM2/termwm/pkg/debugserver"
	"github.com/jD91mZM2/termwm/pkg/framebuffer"
	"github.com/jD91mZM2/termwm/pkg/window"
)

const hint = "Click anywhere!"

// Token identifies one window slot, handed out in increasing order —
// purely a registration key, never compared for recency (recency is the
// order slice below).
type Token uint64

// Workspace owns every window and the shared framebuffer they're
// painted into. The event loop holds the sole mutable reference; no
// method here is safe to call concurrently from two goroutines, mirroring
// spec.md §9's single-owner design (the mutex exists only so pkg/debugserver
// can safely read window positions from its own goroutine).
type Workspace struct {
	mu sync.Mutex

	buffer *framebuffer.Framebuffer
	shell  string
	log    *zap.Logger

	nextToken Token
	order     []Token
	windows   map[Token]*window.Window
}

// New creates an empty workspace sized width x height, spawning shell
// for every window it creates.
func New(shell string, width, height int, log *zap.Logger) *Workspace {
	return &Workspace{
		buffer:  framebuffer.New(width, height),
		shell:   shell,
		log:     log,
		windows: make(map[Token]*window.Window),
	}
}

// Resize adjusts the shared framebuffer and pulls any window whose
// origin fell outside the new bounds back onto the screen.
func (ws *Workspace) Resize(width, height int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.buffer.Resize(width, height)
	for _, tok := range ws.order {
		w := ws.windows[tok]
		w.ClampOrigin(uint16(width), uint16(height))
	}
}

// Size reports the current framebuffer dimensions, for read-only
// introspection (diagnostics, tests).
func (ws *Workspace) Size() (width, height int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.buffer.Width(), ws.buffer.Height()
}

// Add spawns a new window and registers it under a fresh token.
func (ws *Workspace) Add(x, y, width, height uint16) (Token, *window.Window, error) {
	w, err := window.New(ws.shell, x, y, width, height, ws.log)
	if err != nil {
		return 0, nil, fmt.Errorf("spawn window: %w", err)
	}

	ws.mu.Lock()
	tok := ws.nextToken
	ws.nextToken++
	ws.windows[tok] = w
	ws.order = append(ws.order, tok)
	ws.mu.Unlock()

	return tok, w, nil
}

// Remove deregisters and closes the window for tok, if present.
func (ws *Workspace) Remove(tok Token) error {
	ws.mu.Lock()
	w, ok := ws.windows[tok]
	if ok {
		delete(ws.windows, tok)
		ws.order = removeToken(ws.order, tok)
	}
	ws.mu.Unlock()

	if !ok {
		return nil
	}
	return w.Close()
}

func removeToken(order []Token, tok Token) []Token {
	for i, t := range order {
		if t == tok {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// Window returns the window registered under tok, if any.
func (ws *Workspace) Window(tok Token) (*window.Window, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[tok]
	return w, ok
}

// Tokens returns a snapshot of every registered token in focus order
// (oldest/least-recently-raised first), for the event loop to register
// descriptors with its reactor.
func (ws *Workspace) Tokens() []Token {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]Token, len(ws.order))
	copy(out, ws.order)
	return out
}

// Click translates a raw X10 mouse report into workspace coordinates and
// dispatches it to the front-most window under the cursor, raising that
// window if the click is a release or a drag and it wasn't already
// front-most. A release over empty space spawns a new centered window.
func (ws *Workspace) Click(m, cx8, cy8 byte) (spawned Token, didSpawn bool, err error) {
	ws.mu.Lock()
	width, height := ws.buffer.Width(), ws.buffer.Height()

	cx := clampU16(satSub8(cx8, 0x21), uint16(width)-1)
	cy := clampU16(satSub8(cy8, 0x21), uint16(height)-1)

	var hitToken Token
	var hit *window.Window
	for i := len(ws.order) - 1; i >= 0; i-- {
		tok := ws.order[i]
		w := ws.windows[tok]
		if w.Inside(cx, cy) {
			hitToken, hit = tok, w
			break
		}
	}

	if hit == nil {
		ws.mu.Unlock()
		if m&0b11 == 3 {
			return ws.spawnCentered(width, height)
		}
		return 0, false, nil
	}

	front := len(ws.order) > 0 && ws.order[len(ws.order)-1] == hitToken
	ws.mu.Unlock()

	if err := hit.Click(front, m, cx, cy); err != nil {
		return 0, false, err
	}

	if !front && (m&0x40 == 0x40 || m&0b11 == 3) {
		ws.mu.Lock()
		ws.order = removeToken(ws.order, hitToken)
		ws.order = append(ws.order, hitToken)
		ws.mu.Unlock()
	}
	return 0, false, nil
}

func (ws *Workspace) spawnCentered(screenW, screenH int) (Token, bool, error) {
	width := uint16(min(80, screenW))
	height := uint16(min(32, screenH))
	x := uint16(screenW)/2 - width/2
	y := uint16(screenH)/2 - height/2

	tok, _, err := ws.Add(x, y, width, height)
	if err != nil {
		return 0, false, err
	}
	return tok, true, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func satSub8(a, b byte) uint16 {
	if a < b {
		return 0
	}
	return uint16(a - b)
}

func clampU16(v, max uint16) uint16 {
	if v > max {
		return max
	}
	return v
}

// Render clears the shared framebuffer, paints the idle-screen hint
// centered on the middle row, then paints every window in map order
// (front-most last, so it draws on top).
func (ws *Workspace) Render() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.buffer.Clear()

	width := ws.buffer.Width()
	x := width/2 - len(hint)/2
	y := ws.buffer.Height() / 2
	for i, r := range hint {
		ws.buffer.Set(x+i, y, cellmodel.FromRune(r))
	}

	for _, tok := range ws.order {
		ws.windows[tok].Render(ws.buffer)
	}
}

// Draw flushes the framebuffer's differential redraw to w.
func (ws *Workspace) Draw(w io.Writer) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.buffer.Draw(w)
}

// Snapshot returns a read-only geometry summary of every window in
// focus order, satisfying debugserver.Snapshotter.
func (ws *Workspace) Snapshot() []debugserver.WindowInfo {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	out := make([]debugserver.WindowInfo, 0, len(ws.order))
	for _, tok := range ws.order {
		w := ws.windows[tok]
		x, y, width, height := w.Geometry()
		out = append(out, debugserver.WindowInfo{ID: w.ID(), X: x, Y: y, Width: width, Height: height})
	}
	return out
}

// Write forwards bytes to the front-most window's pty; with no windows
// registered the bytes are dropped and reported as successfully
// written, matching spec.md §4.5's "Workspace is itself a byte sink".
func (ws *Workspace) Write(buf []byte) (int, error) {
	ws.mu.Lock()
	var front *window.Window
	if n := len(ws.order); n > 0 {
		front = ws.windows[ws.order[n-1]]
	}
	ws.mu.Unlock()

	if front == nil {
		return len(buf), nil
	}
	return front.WriteInput(buf)
}
