package events

import "unicode/utf8"

// TruncatePreview cuts s to at most maxRunes characters without splitting a
// multi-byte character. A non-positive maxRunes returns s unchanged.
func TruncatePreview(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
