package logger

import (
	"fmt"
	"strings"
)

// Sanitize escapes control characters in a string before it reaches the
// log stream. File names come from arbitrary sources (dropzone events,
// shell args); newlines, ANSI escapes and other control bytes are rendered
// as escapes while all printable Unicode passes through.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		default:
			if r < 32 || r == 127 {
				fmt.Fprintf(&b, "\\x%02x", r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
