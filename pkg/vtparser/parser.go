// Package vtparser implements the spec's external "VT parser" (spec.md
// §1/§6): a byte-stream-to-screen-event translator satisfying the
// Console interface a Window drives. A concrete implementation is
// provided here — termwm can't run without one even though spec.md
// lists it as an out-of-scope collaborator — grounded on the teacher's
// own ANSI handling (pkg/terminal/buffer.go's handleCsi/handleSGR/
// handleOsc/handleExecute), restructured to emit events instead of
// writing into a private grid, per SPEC_FULL.md §4.4a.
package vtparser

import (
	"unicode/utf8"

	"github.com/jD91mZM2/termwm/pkg/cellmodel"
)

type parseState int

const (
	pStateGround parseState = iota
	pStateEsc
	pStateCSI
	pStateOSC
	pStateOSCEsc
)

// Console tracks cursor position and SGR attribute state while parsing
// a child pty's byte stream, emitting Events to a Sink for the owning
// Window to apply to its own screen grid.
type Console struct {
	cols, rows int

	cursorX, cursorY int
	savedX, savedY   int

	fg, bg             cellmodel.Color
	bold, underline    bool

	alternate bool

	state  parseState
	params []int
	cur    int
	hasCur bool
	prefix byte // '?' for private-mode CSI sequences
	osc    []byte
}

// New creates a Console sized cols x rows with default attributes
// (background Ansi(0), foreground Ansi(7), matching cellmodel.Space).
func New(cols, rows int) *Console {
	return &Console{
		cols: cols,
		rows: rows,
		fg:   cellmodel.Ansi(7),
		bg:   cellmodel.Ansi(0),
	}
}

// Resize updates the Console's notion of screen size and clamps the
// cursor into bounds, mirroring spec.md's Window.resize interaction
// with its attached parser.
func (c *Console) Resize(cols, rows int) {
	c.cols, c.rows = cols, rows
	if c.cursorX >= cols {
		c.cursorX = cols - 1
	}
	if c.cursorY >= rows {
		c.cursorY = rows - 1
	}
}

// Write parses buf, emitting one Event per semantic action to sink.
func (c *Console) Write(buf []byte, sink Sink) {
	i := 0
	for i < len(buf) {
		b := buf[i]

		switch c.state {
		case pStateGround:
			if b == 0x1b {
				c.state = pStateEsc
				i++
				continue
			}
			if b < 0x20 {
				c.execute(b, sink)
				i++
				continue
			}
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && size <= 1 {
				i++
				continue
			}
			c.printRune(r, sink)
			i += size

		case pStateEsc:
			switch b {
			case '[':
				c.state = pStateCSI
				c.params = c.params[:0]
				c.cur = 0
				c.hasCur = false
				c.prefix = 0
			case ']':
				c.state = pStateOSC
				c.osc = c.osc[:0]
			default:
				// Unrecognized single-character escape: ignored,
				// matching the teacher's handleEscape no-op.
				c.state = pStateGround
			}
			i++

		case pStateCSI:
			switch {
			case b == '?' && len(c.params) == 0 && !c.hasCur:
				c.prefix = '?'
			case b >= '0' && b <= '9':
				c.cur = c.cur*10 + int(b-'0')
				c.hasCur = true
			case b == ';':
				c.params = append(c.params, c.cur)
				c.cur = 0
				c.hasCur = false
			default:
				if c.hasCur || len(c.params) == 0 {
					c.params = append(c.params, c.cur)
				}
				c.handleCSI(b, sink)
				c.state = pStateGround
			}
			i++

		case pStateOSC:
			if b == 0x07 {
				c.handleOSC(sink)
				c.state = pStateGround
			} else if b == 0x1b {
				c.state = pStateOSCEsc
			} else {
				c.osc = append(c.osc, b)
			}
			i++

		case pStateOSCEsc:
			if b == '\\' {
				c.handleOSC(sink)
				c.state = pStateGround
			} else {
				c.state = pStateOSC
			}
			i++
		}
	}
}

func (c *Console) execute(b byte, sink Sink) {
	switch b {
	case '\r':
		c.cursorX = 0
	case '\n':
		c.lineFeed(sink)
	case '\b':
		if c.cursorX > 0 {
			c.cursorX--
		}
	case '\t':
		next := ((c.cursorX / 8) + 1) * 8
		if next >= c.cols {
			next = c.cols - 1
		}
		c.cursorX = next
	}
}

func (c *Console) printRune(r rune, sink Sink) {
	sink(Event{
		Kind: EventChar, X: c.cursorX, Y: c.cursorY,
		Char: r, Bold: c.bold, Underlined: c.underline, Color: c.fg,
	})
	c.cursorX++
	if c.cursorX >= c.cols {
		c.cursorX = 0
		c.lineFeed(sink)
	}
}

// lineFeed advances the cursor to the next row, scrolling the visible
// screen up by one line (via a Move + clearing Rect) when the cursor
// would otherwise run past the last row.
func (c *Console) lineFeed(sink Sink) {
	c.cursorY++
	if c.cursorY >= c.rows {
		c.cursorY = c.rows - 1
		if c.rows > 1 {
			sink(Event{
				Kind:  EventMove,
				FromX: 0, FromY: 1, ToX: 0, ToY: 0,
				W: c.cols, H: c.rows - 1,
			})
		}
		sink(Event{Kind: EventRect, X: 0, Y: c.rows - 1, W: c.cols, H: 1, Color: c.bg})
	}
}

func (c *Console) handleCSI(final byte, sink Sink) {
	p := func(i int, def int) int {
		if i < len(c.params) || 0 < len(c.params) {
			if i < len(c.params) && c.params[i] > 0 {
				return c.params[i]
			}
		}
		return def
	}

	switch final {
	case 'A':
		c.cursorY -= p(0, 1)
		c.clampCursor()
	case 'B':
		c.cursorY += p(0, 1)
		c.clampCursor()
	case 'C':
		c.cursorX += p(0, 1)
		c.clampCursor()
	case 'D':
		c.cursorX -= p(0, 1)
		c.clampCursor()
	case 'H', 'f':
		row := p(0, 1)
		col := p(1, 1)
		c.cursorY = row - 1
		c.cursorX = col - 1
		c.clampCursor()
	case 'J':
		c.eraseDisplay(p(0, 0), sink)
	case 'K':
		c.eraseLine(p(0, 0), sink)
	case 'm':
		c.handleSGR(sink)
	case 'h', 'l':
		c.handlePrivateMode(final == 'h', sink)
	case 't':
		if len(c.params) >= 3 && c.params[0] == 8 {
			rows, cols := c.params[1], c.params[2]
			if rows > 0 && cols > 0 {
				c.Resize(cols, rows)
				sink(Event{Kind: EventResize, W: cols, H: rows})
			}
		}
	}
}

func (c *Console) clampCursor() {
	if c.cursorX < 0 {
		c.cursorX = 0
	}
	if c.cursorX >= c.cols {
		c.cursorX = c.cols - 1
	}
	if c.cursorY < 0 {
		c.cursorY = 0
	}
	if c.cursorY >= c.rows {
		c.cursorY = c.rows - 1
	}
}

// handlePrivateMode toggles the alternate screen for the conventional
// xterm private modes 47/1047/1049, emitting a ScreenBuffer event per
// spec.md §4.4. The clear flag only applies to the newly-visible
// buffer, matching SPEC_FULL.md's recorded Open Question decision.
func (c *Console) handlePrivateMode(set bool, sink Sink) {
	if c.prefix != '?' {
		return
	}
	for _, mode := range c.params {
		switch mode {
		case 47, 1047, 1049:
			if c.alternate != set {
				c.alternate = set
				sink(Event{Kind: EventScreenBuffer, Alternate: set, Clear: set})
			}
		}
	}
}

func (c *Console) eraseDisplay(mode int, sink Sink) {
	switch mode {
	case 0:
		sink(Event{Kind: EventRect, X: c.cursorX, Y: c.cursorY, W: c.cols - c.cursorX, H: 1, Color: c.bg})
		if c.cursorY+1 < c.rows {
			sink(Event{Kind: EventRect, X: 0, Y: c.cursorY + 1, W: c.cols, H: c.rows - c.cursorY - 1, Color: c.bg})
		}
	case 1:
		sink(Event{Kind: EventRect, X: 0, Y: c.cursorY, W: c.cursorX + 1, H: 1, Color: c.bg})
		if c.cursorY > 0 {
			sink(Event{Kind: EventRect, X: 0, Y: 0, W: c.cols, H: c.cursorY, Color: c.bg})
		}
	case 2, 3:
		sink(Event{Kind: EventRect, X: 0, Y: 0, W: c.cols, H: c.rows, Color: c.bg})
	}
}

func (c *Console) eraseLine(mode int, sink Sink) {
	switch mode {
	case 0:
		sink(Event{Kind: EventRect, X: c.cursorX, Y: c.cursorY, W: c.cols - c.cursorX, H: 1, Color: c.bg})
	case 1:
		sink(Event{Kind: EventRect, X: 0, Y: c.cursorY, W: c.cursorX + 1, H: 1, Color: c.bg})
	case 2:
		sink(Event{Kind: EventRect, X: 0, Y: c.cursorY, W: c.cols, H: 1, Color: c.bg})
	}
}

func (c *Console) handleSGR(sink Sink) {
	params := c.params
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		switch {
		case params[i] == 0:
			c.fg = cellmodel.Ansi(7)
			c.bg = cellmodel.Ansi(0)
			c.bold = false
			c.underline = false
		case params[i] == 1:
			c.bold = true
		case params[i] == 4:
			c.underline = true
		case params[i] == 22:
			c.bold = false
		case params[i] == 24:
			c.underline = false
		case params[i] == 39:
			c.fg = cellmodel.Ansi(7)
		case params[i] == 49:
			c.bg = cellmodel.Ansi(0)
		case params[i] >= 30 && params[i] <= 37:
			c.fg = cellmodel.Ansi(uint8(params[i] - 30))
		case params[i] >= 40 && params[i] <= 47:
			c.bg = cellmodel.Ansi(uint8(params[i] - 40))
		case params[i] >= 90 && params[i] <= 97:
			c.fg = cellmodel.Ansi(uint8(params[i]-90) + 8)
		case params[i] >= 100 && params[i] <= 107:
			c.bg = cellmodel.Ansi(uint8(params[i]-100) + 8)
		case params[i] == 38 || params[i] == 48:
			target := &c.fg
			if params[i] == 48 {
				target = &c.bg
			}
			if i+1 < len(params) && params[i+1] == 5 && i+2 < len(params) {
				*target = cellmodel.Ansi(uint8(params[i+2]))
				i += 2
			} else if i+1 < len(params) && params[i+1] == 2 && i+4 < len(params) {
				*target = cellmodel.TrueColor(uint8(params[i+2]), uint8(params[i+3]), uint8(params[i+4]))
				i += 4
			}
		}
	}
}

func (c *Console) handleOSC(sink Sink) {
	// OSC 0/2 set the window title; termwm tracks no window
	// decorations beyond the ASCII frame (spec.md Non-goals), so the
	// event is emitted purely for Window.write's documented no-op
	// handling, matching spec.md §4.4 ("Title, Input -> ignored").
	if len(c.osc) == 0 {
		return
	}
	sink(Event{Kind: EventTitle, Title: string(c.osc)})
}
