package terminal

import (
	"strings"
	"unicode"
)

// LineBuffer is the single input line of a session and its cursor.
//
// Every mutating method returns the echo delta: the bytes that bring the
// remote terminal in line with the new state.  Methods that can be no-ops
// also report whether anything changed; a no-op returns an empty echo.
// The cursor always stays within [0, Len()].
type LineBuffer struct {
	text   []rune
	cursor int
}

// String returns the current text.
func (b *LineBuffer) String() string { return string(b.text) }

// Len returns the number of characters in the line.
func (b *LineBuffer) Len() int { return len(b.text) }

// Cursor returns the cursor index.
func (b *LineBuffer) Cursor() int { return b.cursor }

// Reset empties the line without echoing anything.
func (b *LineBuffer) Reset() {
	b.text = b.text[:0]
	b.cursor = 0
}

// PrevIsSpace reports whether the character just before the cursor is
// whitespace.
func (b *LineBuffer) PrevIsSpace() bool {
	return b.cursor > 0 && unicode.IsSpace(b.text[b.cursor-1])
}

// Insert puts ch at the cursor and advances it.  Trailing text is redrawn
// and the remote cursor is moved back to sit right after ch.
func (b *LineBuffer) Insert(ch rune) string {
	after := string(b.text[b.cursor:])

	b.text = append(b.text, 0)
	copy(b.text[b.cursor+1:], b.text[b.cursor:])
	b.text[b.cursor] = ch
	b.cursor++

	if after == "" {
		return string(ch)
	}
	return string(ch) + after + CursorLeft(len([]rune(after)))
}

// DeleteBefore removes the character left of the cursor.
func (b *LineBuffer) DeleteBefore() (string, bool) {
	if b.cursor == 0 {
		return "", false
	}
	redraw := string(b.text[b.cursor:]) + " "

	b.text = append(b.text[:b.cursor-1], b.text[b.cursor:]...)
	b.cursor--

	return CursorLeft(1) + redraw + CursorLeft(len([]rune(redraw))), true
}

// DeleteAt removes the character under the cursor.
func (b *LineBuffer) DeleteAt() (string, bool) {
	if b.cursor >= len(b.text) {
		return "", false
	}
	redraw := string(b.text[b.cursor+1:]) + " "

	b.text = append(b.text[:b.cursor], b.text[b.cursor+1:]...)

	return redraw + CursorLeft(len([]rune(redraw))), true
}

// MoveLeft moves the cursor one column left.
func (b *LineBuffer) MoveLeft() (string, bool) {
	if b.cursor == 0 {
		return "", false
	}
	b.cursor--
	return KeyLeft, true
}

// MoveRight moves the cursor one column right.
func (b *LineBuffer) MoveRight() (string, bool) {
	if b.cursor >= len(b.text) {
		return "", false
	}
	b.cursor++
	return KeyRight, true
}

// JumpWordLeft moves the cursor to the start of the word on its left.
func (b *LineBuffer) JumpWordLeft() (string, bool) {
	if b.cursor == 0 {
		return "", false
	}
	pos := LeftJumpPosition(string(b.text), b.cursor)
	return b.moveTo(pos)
}

// JumpWordRight moves the cursor to the start of the next word, or the
// end of the line.
func (b *LineBuffer) JumpWordRight() (string, bool) {
	if b.cursor >= len(b.text) {
		return "", false
	}
	pos := RightJumpPosition(string(b.text), b.cursor)
	return b.moveTo(pos)
}

// Home moves the cursor to the start of the line.
func (b *LineBuffer) Home() (string, bool) { return b.moveTo(0) }

// End moves the cursor to the end of the line.
func (b *LineBuffer) End() (string, bool) { return b.moveTo(len(b.text)) }

func (b *LineBuffer) moveTo(pos int) (string, bool) {
	pos = clamp(pos, 0, len(b.text))
	diff := pos - b.cursor
	b.cursor = pos
	switch {
	case diff < 0:
		return CursorLeft(-diff), true
	case diff > 0:
		return CursorRight(diff), true
	default:
		return "", false
	}
}

// Replace swaps the whole line for text and puts the cursor at its end.
// Leftover characters of a longer previous line are blanked out.
func (b *LineBuffer) Replace(text string) string {
	var out strings.Builder
	out.WriteString(CursorLeft(b.cursor))
	out.WriteString(text)

	next := []rune(text)
	if erase := len(b.text) - len(next); erase > 0 {
		out.WriteString(strings.Repeat(" ", erase))
		out.WriteString(CursorLeft(erase))
	}

	b.text = next
	b.cursor = len(next)
	return out.String()
}

// Append moves to the end of the line and writes s there.  It is used
// by completion, which always extends the line.
func (b *LineBuffer) Append(s string) string {
	move, _ := b.End()
	b.text = append(b.text, []rune(s)...)
	b.cursor = len(b.text)
	return move + s
}

// TrimRight drops trailing whitespace and leaves the cursor at the new
// end of the line.
func (b *LineBuffer) TrimRight() (string, bool) {
	n := len(b.text)
	for n > 0 && unicode.IsSpace(b.text[n-1]) {
		n--
	}
	erase := len(b.text) - n
	if erase == 0 {
		return "", false
	}
	move, _ := b.moveTo(n)
	b.text = b.text[:n]
	return move + strings.Repeat(" ", erase) + CursorLeft(erase), true
}

// Debug renders the line with the cursor position marked, for trace logs.
func (b *LineBuffer) Debug() string {
	var out strings.Builder
	for i, r := range b.text {
		if i == b.cursor {
			out.WriteString("[" + string(r) + "]")
			continue
		}
		out.WriteRune(r)
	}
	if b.cursor == len(b.text) {
		out.WriteString("[]")
	}
	return out.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
