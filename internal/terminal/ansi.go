package terminal

import "strconv"

// Escape sequences understood as editing keys.
const (
	KeyUp        = "\x1b[A"
	KeyDown      = "\x1b[B"
	KeyRight     = "\x1b[C"
	KeyLeft      = "\x1b[D"
	KeyWordRight = "\x1b[1;5C"
	KeyWordLeft  = "\x1b[1;5D"
	KeyDelete    = "\x1b[3~"
)

var homeKeys = map[string]bool{"\x1b[H": true, "\x1b[1~": true, "\x1bOH": true}
var endKeys = map[string]bool{"\x1b[F": true, "\x1b[4~": true, "\x1bOF": true}

// IsHome reports whether seq is one of the Home key encodings.
func IsHome(seq string) bool { return homeKeys[seq] }

// IsEnd reports whether seq is one of the End key encodings.
func IsEnd(seq string) bool { return endKeys[seq] }

// SGR colour codes used by the prompt.
const (
	Green = "\x1b[32m"
	Red   = "\x1b[31m"
	Reset = "\x1b[0m"
)

// CRLF is the line break every remote terminal expects.
const CRLF = "\r\n"

// CursorLeft moves the cursor n columns left.  n <= 0 yields "".
func CursorLeft(n int) string {
	if n <= 0 {
		return ""
	}
	return "\x1b[" + strconv.Itoa(n) + "D"
}

// CursorRight moves the cursor n columns right.  n <= 0 yields "".
func CursorRight(n int) string {
	if n <= 0 {
		return ""
	}
	return "\x1b[" + strconv.Itoa(n) + "C"
}
