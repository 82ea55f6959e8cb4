package validators

import (
	"strings"
	"unicode"
)

// Clean trims the input, folds runs of whitespace into a single space, drops
// control characters and cuts the result to maxRunes (0 means no limit).
func Clean(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	runes := 0
	for _, r := range input {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			if maxRunes > 0 && runes+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		if maxRunes > 0 && runes >= maxRunes {
			break
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
