package vtparser

import "github.com/jD91mZM2/termwm/pkg/cellmodel"

// EventKind enumerates the semantic screen events a Console emits while
// parsing child output, per spec.md §4.4/§6.
type EventKind int

const (
	EventChar EventKind = iota
	EventRect
	EventScreenBuffer
	EventMove
	EventResize
	EventTitle
	EventInput
)

// Event carries one semantic console event. Only the fields relevant to
// Kind are populated; see spec.md §4.4 for the field-by-field mapping
// Window.Write applies to its own screen grid.
type Event struct {
	Kind EventKind

	// EventChar
	X, Y       int
	Char       rune
	Bold       bool
	Underlined bool
	Color      cellmodel.Color

	// EventRect additionally uses X, Y above as origin
	W, H int

	// EventScreenBuffer
	Alternate bool
	Clear     bool

	// EventMove
	FromX, FromY, ToX, ToY int

	// EventTitle
	Title string

	// EventInput
	Input []byte
}

// Sink receives Events as a Console parses bytes. Window.Write is the
// only real implementation; tests may supply their own to assert on
// the exact event sequence a byte string produces.
type Sink func(Event)
