// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText wraps plain text to the given display width, breaking on
// spaces where possible.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out strings.Builder
	lineWidth := 0
	for i, word := range strings.Fields(text) {
		wordWidth := runewidth.StringWidth(word)
		if i > 0 {
			if lineWidth+1+wordWidth > width {
				out.WriteRune('\n')
				lineWidth = 0
			} else {
				out.WriteRune(' ')
				lineWidth++
			}
		}
		if wordWidth > width {
			lineWidth = writeBrokenWord(&out, word, width, lineWidth)
			continue
		}
		out.WriteString(word)
		lineWidth += wordWidth
	}
	return out.String()
}

// writeBrokenWord hard-breaks a word wider than the line and returns
// the width of the last emitted line.
func writeBrokenWord(out *strings.Builder, word string, width, lineWidth int) int {
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if lineWidth+rw > width {
			out.WriteRune('\n')
			lineWidth = 0
		}
		out.WriteRune(r)
		lineWidth += rw
	}
	return lineWidth
}
