package terminal

import (
	"strings"
	"unicode"
)

// LeftJumpPosition returns where Ctrl+Left lands: the start of the word
// left of cursor, absorbing any whitespace between the cursor and that
// word.  The result is always within [0, len(text)].
func LeftJumpPosition(text string, cursor int) int {
	runes := []rune(text)
	cursor = clamp(cursor, 0, len(runes))
	if isBlank(runes[:cursor]) {
		return 0
	}

	found := false
	for i := cursor; i > 0; i-- {
		space := unicode.IsSpace(runes[i-1])
		if !found && !space {
			found = true
			continue
		}
		if found && space {
			return i
		}
	}
	return 0
}

// RightJumpPosition returns where Ctrl+Right lands: past the rest of the
// current word and the whitespace after it, on the first character of
// the next word, or at the end of text.
func RightJumpPosition(text string, cursor int) int {
	runes := []rune(text)
	cursor = clamp(cursor, 0, len(runes))
	rhs := runes[cursor:]
	if isBlank(rhs) {
		return len(runes)
	}

	foundSpace := false
	for j, r := range rhs {
		space := unicode.IsSpace(r)
		if space {
			foundSpace = true
			continue
		}
		if foundSpace {
			return cursor + j
		}
	}
	return cursor + len(rhs)
}

func isBlank(runes []rune) bool {
	return strings.TrimSpace(string(runes)) == ""
}
