package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiaolongtang/rw/internal/model"
)

var heatStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#5A9BD4")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#3478C6")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#1677FF")).Bold(true),
}

var heatGlyphs = []string{"··", "░░", "▒▒", "██"}

// RenderMonth renders one month as a calendar grid with a heat cell
// per day. Weeks start on Monday.
func RenderMonth(year int, month time.Month, counts map[string]int, useColor bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %d\n", month.String(), year))
	b.WriteString("Mo Tu We Th Fr Sa Su\n")

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	// Monday-based weekday column of the first day.
	col := (int(first.Weekday()) + 6) % 7
	if col > 0 {
		b.WriteString(strings.Repeat("   ", col))
	}
	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		level := HeatLevel(counts[day.Format(model.DateLayout)])
		cell := heatGlyphs[level]
		if useColor {
			cell = heatStyles[level].Render(cell)
		}
		b.WriteString(cell)
		if col == 6 {
			b.WriteString("\n")
			col = 0
		} else {
			b.WriteString(" ")
			col++
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
	return b.String()
}
