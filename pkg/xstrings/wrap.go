package xstrings

import (
	"strings"
	"unicode/utf8"
)

// WrapLines breaks text into lines of at most width runes, splitting at
// whitespace. Line breaks in text are kept, blank lines included. A word
// longer than width gets a line of its own.
func WrapLines(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}

	out := []string{}
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		line := words[0]
		n := utf8.RuneCountInString(line)
		for _, w := range words[1:] {
			wn := utf8.RuneCountInString(w)
			if n+1+wn > width {
				out = append(out, line)
				line, n = w, wn
				continue
			}
			line += " " + w
			n += 1 + wn
		}
		out = append(out, line)
	}
	return out
}
