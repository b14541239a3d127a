package command

import "strings"

// Complete returns the text to append to input to complete a command
// key.  A unique match completes fully and adds a trailing space; several
// matches complete their mutual prefix.  It reports false when there is
// nothing to add, including when several matches share nothing beyond
// input.
func Complete(input string, keys []string) (string, bool) {
	input = strings.TrimSpace(input)

	var matches []string
	for _, k := range keys {
		if strings.HasPrefix(k, input) {
			matches = append(matches, k)
		}
	}

	switch len(matches) {
	case 0:
		return "", false
	case 1:
		full := matches[0] + " "
		if len(input) >= len(full) {
			return "", false
		}
		return full[len(input):], true
	default:
		ext := MutualPrefix(matches, len(input))
		return ext, ext != ""
	}
}

// MutualPrefix returns the characters all items share from start on.
func MutualPrefix(items []string, start int) string {
	if len(items) == 0 {
		return ""
	}
	shortest := len(items[0])
	for _, it := range items[1:] {
		if len(it) < shortest {
			shortest = len(it)
		}
	}
	if start >= shortest {
		return ""
	}

	end := start
	for ; end < shortest; end++ {
		c := items[0][end]
		same := true
		for _, it := range items[1:] {
			if it[end] != c {
				same = false
				break
			}
		}
		if !same {
			break
		}
	}
	return items[0][start:end]
}
