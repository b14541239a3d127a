// Package terminal turns the raw byte stream of an interactive channel
// into editing events and keeps a single input line plus its cursor in
// sync with what the remote terminal displays.
//
// Nothing here redraws a screen.  Every mutation on a LineBuffer returns
// the exact bytes the caller has to echo so that the remote cursor ends
// up where the buffer cursor is.
package terminal

import (
	"bufio"
	"strings"
)

// Kind classifies an input event.
type Kind int

const (
	Printable Kind = iota
	ControlEOT
	ControlETX
	ControlCR
	ControlLF
	ControlBackspace
	ControlTab
	EscapeSequence
	Unhandled
)

var kindNames = [...]string{
	Printable:        "printable",
	ControlEOT:       "eot",
	ControlETX:       "etx",
	ControlCR:        "cr",
	ControlLF:        "lf",
	ControlBackspace: "backspace",
	ControlTab:       "tab",
	EscapeSequence:   "escape",
	Unhandled:        "unhandled",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Control bytes the decoder recognises.
const (
	ETX       byte = 0x03
	EOT       byte = 0x04
	TAB       byte = 0x09
	LF        byte = 0x0A
	CR        byte = 0x0D
	ESC       byte = 0x1B
	Backspace byte = 0x7F
)

// Event is one decoded unit of input.
type Event struct {
	Kind Kind
	Char rune   // set for Printable
	Seq  string // set for EscapeSequence, includes the leading ESC
	Byte byte   // raw byte for everything except EscapeSequence
}

// Classify maps a single byte to its event kind.  ESC yields
// EscapeSequence with only the ESC byte in Seq; the Decoder extends it.
func Classify(b byte) Event {
	switch {
	case isPrintable(b):
		return Event{Kind: Printable, Char: rune(b), Byte: b}
	case b == EOT:
		return Event{Kind: ControlEOT, Byte: b}
	case b == ETX:
		return Event{Kind: ControlETX, Byte: b}
	case b == CR:
		return Event{Kind: ControlCR, Byte: b}
	case b == LF:
		return Event{Kind: ControlLF, Byte: b}
	case b == Backspace:
		return Event{Kind: ControlBackspace, Byte: b}
	case b == TAB:
		return Event{Kind: ControlTab, Byte: b}
	case b == ESC:
		return Event{Kind: EscapeSequence, Seq: string(ESC), Byte: b}
	default:
		return Event{Kind: Unhandled, Byte: b}
	}
}

// isPrintable covers space through '~': punctuation 32-47, digits 48-57,
// punctuation 58-64, upper 65-90, punctuation 91-96, lower 97-122 and
// punctuation 123-126.
func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// escapeTerminators end an escape sequence as soon as they are appended.
// A, B, C, D and m close the cursor and SGR sequences; H, F and ~ close
// the Home, End and Delete keys.  A second ESC also ends the sequence.
const escapeTerminators = "ABCDmHF~\x1b"

// maxEscapeLen bounds accumulation when a client floods bytes that never
// include a terminator.
const maxEscapeLen = 16

// Decoder reads events from a buffered byte stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r.  The reader's buffer is what "already available"
// means for escape accumulation.
func NewDecoder(r *bufio.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next blocks for one byte and returns the event it starts.  For ESC it
// keeps consuming bytes only while more are already buffered, stopping
// at a terminator, so a lone ESC never stalls the session.
func (d *Decoder) Next() (Event, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return Event{}, err
	}
	ev := Classify(b)
	if ev.Kind != EscapeSequence {
		return ev, nil
	}

	var seq strings.Builder
	seq.WriteByte(ESC)
	for d.r.Buffered() > 0 && seq.Len() < maxEscapeLen {
		nb, err := d.r.ReadByte()
		if err != nil {
			break
		}
		seq.WriteByte(nb)
		if strings.IndexByte(escapeTerminators, nb) >= 0 {
			break
		}
	}
	ev.Seq = seq.String()
	return ev, nil
}
