// Package sanitize enforces the plain-paragraph output grammar on model text.
//
// Output of Clean never contains '#', '*', '`', backslashes, "__", _italic_
// spans, leading list bullets, or runs of more than one blank line. Clean is
// idempotent.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultDisplayLimit bounds text returned to HTTP callers.
const DefaultDisplayLimit = 50000

var (
	fenceLine   = regexp.MustCompile("(?m)^[ \t]*```.*$")
	bulletStart = regexp.MustCompile(`^(?:[-•+][ \t]+)+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)

	// _x_ bounded by non-word characters, so snake_case survives.
	italic = regexp.MustCompile(`(?m)(^|[^\p{L}\p{N}_])_([^_\s](?:[^_\n]*[^_\s])?)_([^\p{L}\p{N}_]|$)`)

	newlines   = strings.NewReplacer(`\n`, "\n", "\r\n", "\n", "\r", "\n")
	delimiters = strings.NewReplacer("*", "", "`", "", "#", "")
)

// Clean converts raw model output into plain text. It never fails.
func Clean(text string) string {
	text = newlines.Replace(text)
	text = strings.ReplaceAll(text, `\`, "")
	text = fenceLine.ReplaceAllString(text, "")
	text = delimiters.Replace(text)
	text = strings.ReplaceAll(text, "__", "")
	text = fixpoint(text, func(s string) string { return italic.ReplaceAllString(s, "${1}${2}${3}") })

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = fixpoint(line, func(s string) string {
			return bulletStart.ReplaceAllString(strings.TrimSpace(s), "")
		})
	}
	text = strings.Join(lines, "\n")

	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// fixpoint applies f until the text stops changing. Each removal can expose
// a new match, either through a shared boundary or a new outer pair.
func fixpoint(text string, f func(string) string) string {
	for {
		next := f(text)
		if next == text {
			return text
		}
		text = next
	}
}

// DisplayText scrubs control characters, normalizes newlines, collapses blank
// runs, and caps the result at limit runes (DefaultDisplayLimit when limit <= 0).
func DisplayText(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20, r >= 0x7f && r <= 0x9f:
			return -1
		}
		return r
	}, text)
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return Truncate(text, limit)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
