// Package inputdecoder implements the mouse/escape byte-stream decoder
// described in spec.md §4.3: a 4-state machine separating X10 mouse
// reports from bytes destined for the focused child pty.
package inputdecoder

type state int

const (
	stateNormal state = iota
	stateEsc
	stateCsi
	stateMouse
)

// EventKind distinguishes the two event kinds the decoder emits.
type EventKind int

const (
	// EventUnsupported carries an escape sequence the decoder
	// recognized as "not a mouse report" — forwarded raw to the
	// focused child.
	EventUnsupported EventKind = iota
	// EventMouse carries a decoded X10 mouse report: button byte,
	// column byte, row byte (all still 0x20-biased, 1-based).
	EventMouse
)

// Event is emitted by Feed when a recognized byte sequence completes.
type Event struct {
	Kind  EventKind
	Bytes []byte // valid when Kind == EventUnsupported
	M     byte   // valid when Kind == EventMouse
	CX    byte
	CY    byte
}

// Decoder is the 4-state byte-stream mouse/escape decoder.
type Decoder struct {
	state state
	arg1  byte
	arg2  byte
	haveArg1, haveArg2 bool
}

// New returns a Decoder in its initial (Normal) state.
func New() *Decoder {
	return &Decoder{}
}

// Feed processes one byte, returning any event the byte completed and
// whether the byte is a "passthrough" byte: one that started and ended
// the step in the Normal state, i.e. is part of no recognized escape
// sequence. The event loop batches contiguous passthrough bytes into a
// single forwarded write; feeding one byte at a time produces identical
// child-visible output (spec.md §9, "Passthrough windowing").
func (d *Decoder) Feed(b byte) (Event, bool, bool) {
	wasNormal := d.state == stateNormal

	var ev Event
	haveEvent := false

	switch d.state {
	case stateNormal:
		if b == 0x1b {
			d.state = stateEsc
		}
	case stateEsc:
		if b == '[' {
			d.state = stateCsi
		} else {
			d.state = stateNormal
			ev = Event{Kind: EventUnsupported, Bytes: []byte{0x1b, b}}
			haveEvent = true
		}
	case stateCsi:
		if b == 'M' {
			d.state = stateMouse
		} else {
			d.state = stateNormal
			ev = Event{Kind: EventUnsupported, Bytes: []byte{0x1b, '[', b}}
			haveEvent = true
		}
	case stateMouse:
		switch {
		case !d.haveArg1:
			d.arg1 = b
			d.haveArg1 = true
		case !d.haveArg2:
			d.arg2 = b
			d.haveArg2 = true
		default:
			ev = Event{Kind: EventMouse, M: d.arg1, CX: d.arg2, CY: b}
			haveEvent = true
			d.haveArg1, d.haveArg2 = false, false
			d.state = stateNormal
		}
	}

	passthrough := wasNormal && d.state == stateNormal
	return ev, haveEvent, passthrough
}
