// Package cellmodel defines the glyph cell and color types shared by the
// framebuffer, the window screens, and the VT parser.
package cellmodel

// Bold and underline are the only two SGR attributes termwm tracks; bold
// takes precedence over underline when both are set (see Cell.Flags).
const (
	FlagBold uint8 = 1 << iota
	FlagUnderline
)

// Color is either a 256-color palette index or a 24-bit true color.
// Two Colors compare equal when their RGB projections match, so a
// palette index and the true-color triple it maps to are
// interchangeable for differential-redraw purposes.
type Color struct {
	trueColor   bool
	ansi        uint8
	r, g, b     uint8
}

// Ansi builds a 256-color palette Color.
func Ansi(n uint8) Color {
	return Color{ansi: n}
}

// TrueColor builds a 24-bit RGB Color.
func TrueColor(r, g, b uint8) Color {
	return Color{trueColor: true, r: r, g: g, b: b}
}

// IsTrueColor reports whether c was built with TrueColor rather than Ansi.
func (c Color) IsTrueColor() bool { return c.trueColor }

// Ansi256 returns the palette index for a non-true-color Color. The
// result is meaningless if IsTrueColor is true.
func (c Color) Ansi256() uint8 { return c.ansi }

// RGB returns the color's RGB projection. Ansi indices below 16 map to
// the standard terminal palette; indices 16-255 use the conventional
// xterm 256-color cube/grayscale ramp. This projection is what makes
// Cell equality treat a palette entry and its true-color equivalent as
// the same color.
func (c Color) RGB() (r, g, b uint8) {
	if c.trueColor {
		return c.r, c.g, c.b
	}
	return ansi256ToRGB(c.ansi)
}

// Cell is a single character-grid position: its glyph, attribute flags,
// and colors.
type Cell struct {
	Content rune
	Flags   uint8
	Bg      Color
	Fg      Color
}

// Space is the default blank cell: a space glyph on the default
// background (Ansi 0) with the default foreground (Ansi 7).
var Space = Cell{Content: ' ', Bg: Ansi(0), Fg: Ansi(7)}

// FromRune builds a Cell from a bare character using termwm's defaults
// (no attributes, default colors).
func FromRune(r rune) Cell {
	return Cell{Content: r, Bg: Ansi(0), Fg: Ansi(7)}
}

// Equal compares two cells by content, flags, and RGB-projected color —
// a palette color and its true-color equivalent compare equal.
func (c Cell) Equal(o Cell) bool {
	if c.Content != o.Content || c.Flags != o.Flags {
		return false
	}
	br, bg, bb := c.Bg.RGB()
	or, og, ob := o.Bg.RGB()
	if br != or || bg != og || bb != ob {
		return false
	}
	fr, fg, fb := c.Fg.RGB()
	ofr, ofg, ofb := o.Fg.RGB()
	return fr == ofr && fg == ofg && fb == ofb
}

var ansi16 = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// ansi256ToRGB projects a 256-color palette index to its conventional
// xterm RGB triple: 0-15 the standard palette, 16-231 the 6x6x6 color
// cube, 232-255 the grayscale ramp.
func ansi256ToRGB(n uint8) (r, g, b uint8) {
	if n < 16 {
		c := ansi16[n]
		return c[0], c[1], c[2]
	}
	if n >= 232 {
		v := uint8(8 + (int(n)-232)*10)
		return v, v, v
	}
	idx := int(n) - 16
	levels := [6]uint8{0, 95, 135, 175, 215, 255}
	ri := (idx / 36) % 6
	gi := (idx / 6) % 6
	bi := idx % 6
	return levels[ri], levels[gi], levels[bi]
}
