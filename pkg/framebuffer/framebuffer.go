// Package framebuffer implements the character-cell grid that is
// differentially flushed to the host terminal every redraw tick.
package framebuffer

import (
	"fmt"
	"io"

	"github.com/jD91mZM2/termwm/pkg/cellmodel"
)

// Framebuffer is a fixed-size w*h grid of cells with a "previous frame"
// comparison buffer used to emit only the bytes needed to bring the
// host terminal from the last drawn frame to the current one.
type Framebuffer struct {
	width, height int
	current       []cellmodel.Cell
	prev          []cellmodel.Cell
	prevValid     bool
}

// New allocates a blank width x height framebuffer. The first Draw call
// always performs a full repaint, since there is no previous frame yet.
func New(width, height int) *Framebuffer {
	fb := &Framebuffer{width: width, height: height}
	fb.current = newBlankGrid(width, height)
	fb.prev = newBlankGrid(width, height)
	return fb
}

func newBlankGrid(width, height int) []cellmodel.Cell {
	grid := make([]cellmodel.Cell, width*height)
	for i := range grid {
		grid[i] = cellmodel.Space
	}
	return grid
}

// Width returns the framebuffer's column count.
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the framebuffer's row count.
func (fb *Framebuffer) Height() int { return fb.height }

// index translates (x,y) to a slice offset, returning (offset, true),
// or (len(current), false) if out of bounds — matching the Rust
// original's "return an invalid index" sentinel rather than panicking.
func (fb *Framebuffer) index(x, y int) (int, bool) {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return len(fb.current), false
	}
	return y*fb.width + x, true
}

// Clear resets every cell to Space. It does not touch the previous-frame
// comparison buffer, so the next Draw still diffs against the last
// drawn frame.
func (fb *Framebuffer) Clear() {
	for i := range fb.current {
		fb.current[i] = cellmodel.Space
	}
}

// Set writes a single cell. Out-of-bounds coordinates are silently
// ignored.
func (fb *Framebuffer) Set(x, y int, cell cellmodel.Cell) {
	if i, ok := fb.index(x, y); ok {
		fb.current[i] = cell
	}
}

// Line writes a horizontal run of len identical cells starting at
// (x,y), clipped to the row. A y outside the grid is a no-op.
func (fb *Framebuffer) Line(x, y, length int, cell cellmodel.Cell) {
	if y < 0 || y >= fb.height || length <= 0 {
		return
	}
	start := x
	if start < 0 {
		start = 0
	}
	end := x + length
	if end > fb.width {
		end = fb.width
	}
	for i := start; i < end; i++ {
		fb.current[y*fb.width+i] = cell
	}
}

// CopyFrom copies min(len(row), width-x) cells into row y starting at
// column x. A y outside the grid is a no-op.
func (fb *Framebuffer) CopyFrom(x, y int, row []cellmodel.Cell) {
	if y < 0 || y >= fb.height || x >= fb.width {
		return
	}
	start := x
	n := len(row)
	if x < 0 {
		// Negative x would require clipping the source slice too;
		// termwm never calls CopyFrom with a negative x, so keep
		// this simple and defensive rather than silently
		// misaligning columns.
		return
	}
	if max := fb.width - start; n > max {
		n = max
	}
	copy(fb.current[y*fb.width+start:y*fb.width+start+n], row[:n])
}

// Resize reallocates both grids to the new dimensions, blanked, and
// forces a full repaint on the next Draw.
func (fb *Framebuffer) Resize(width, height int) {
	fb.width = width
	fb.height = height
	fb.current = newBlankGrid(width, height)
	fb.prev = newBlankGrid(width, height)
	fb.prevValid = false
}

// sgrState tracks what was last emitted so Draw only re-emits the SGR
// codes that actually changed, mirroring the original's
// last_flags/last_bg/last_fg shadow variables.
type sgrState struct {
	haveFlags      bool
	flags          uint8
	haveBg, haveFg bool
	bgR, bgG, bgB  uint8
	fgR, fgG, fgB  uint8
}

// Draw performs the differential flush described in spec.md §4.1: for
// each row, skip the longest matching prefix against the previous
// frame, emit a cursor-position escape, then walk the remainder
// emitting only the SGR state that changed before each cell's glyph.
// After a full pass it copies current into prev and marks the frame
// valid, so an unchanged Draw()/Draw() pair emits zero bytes on the
// second call.
func (fb *Framebuffer) Draw(w io.Writer) error {
	var state sgrState

	for y := 0; y < fb.height; y++ {
		rowStart := y * fb.width
		x := 0

		if fb.prevValid {
			for x < fb.width && fb.current[rowStart+x].Equal(fb.prev[rowStart+x]) {
				x++
			}
			if x == fb.width {
				continue
			}
		}

		if _, err := fmt.Fprintf(w, "\x1b[%d;%dH", y+1, x+1); err != nil {
			return err
		}

		for ; x < fb.width; x++ {
			cell := fb.current[rowStart+x]
			if err := emitSGR(w, &state, cell); err != nil {
				return err
			}
			if _, err := io.WriteString(w, string(cell.Content)); err != nil {
				return err
			}
		}
	}

	copy(fb.prev, fb.current)
	fb.prevValid = true
	return nil
}

func emitSGR(w io.Writer, state *sgrState, cell cellmodel.Cell) error {
	bgR, bgG, bgB := cell.Bg.RGB()
	fgR, fgG, fgB := cell.Fg.RGB()

	if !state.haveFlags || state.flags != cell.Flags {
		if _, err := io.WriteString(w, "\x1b[0m"); err != nil {
			return err
		}
		if err := printColor(w, 48, cell.Bg); err != nil {
			return err
		}
		if err := printColor(w, 38, cell.Fg); err != nil {
			return err
		}
		switch {
		case cell.Flags&cellmodel.FlagBold != 0:
			if _, err := io.WriteString(w, "\x1b[1m"); err != nil {
				return err
			}
		case cell.Flags&cellmodel.FlagUnderline != 0:
			if _, err := io.WriteString(w, "\x1b[4m"); err != nil {
				return err
			}
		}
		state.haveFlags = true
		state.flags = cell.Flags
		state.haveBg, state.bgR, state.bgG, state.bgB = true, bgR, bgG, bgB
		state.haveFg, state.fgR, state.fgG, state.fgB = true, fgR, fgG, fgB
		return nil
	}

	if !state.haveBg || state.bgR != bgR || state.bgG != bgG || state.bgB != bgB {
		if err := printColor(w, 48, cell.Bg); err != nil {
			return err
		}
		state.haveBg, state.bgR, state.bgG, state.bgB = true, bgR, bgG, bgB
		state.haveFlags = false
	}
	if !state.haveFg || state.fgR != fgR || state.fgG != fgG || state.fgB != fgB {
		if err := printColor(w, 38, cell.Fg); err != nil {
			return err
		}
		state.haveFg, state.fgR, state.fgG, state.fgB = true, fgR, fgG, fgB
		state.haveFlags = false
	}
	return nil
}

func printColor(w io.Writer, mode int, color cellmodel.Color) error {
	if color.IsTrueColor() {
		r, g, b := color.RGB()
		_, err := fmt.Fprintf(w, "\x1b[%d;2;%d;%d;%dm", mode, r, g, b)
		return err
	}
	_, err := fmt.Fprintf(w, "\x1b[%d;5;%dm", mode, color.Ansi256())
	return err
}
