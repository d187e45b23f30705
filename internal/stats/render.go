package stats

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/xiaolongtang/rw/internal/model"
)

const terminalWidthBackup = 80

// TerminalWidth returns the current terminal width, falling back to 80
// when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints the overview numbers.
func RenderSummary(w io.Writer, summary Summary) error {
	if _, err := fmt.Fprintf(w, "Today: %d session(s)\n", summary.TodayCount); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Streak: %d day(s)\n", summary.Streak); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Completed units: %d (%.1f min total)\n",
		summary.TotalSessions, float64(summary.TotalDurationSec)/60); err != nil {
		return err
	}
	return nil
}

// RenderRecent prints the most recent completion records, newest
// first, truncating lines to the given width.
func RenderRecent(w io.Writer, sessions []model.SessionRecord, limit, width int) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	if limit <= 0 || limit > len(sessions) {
		limit = len(sessions)
	}
	for _, s := range sessions[:limit] {
		line := fmt.Sprintf("%s  %s/%s  %ds  %d wrong",
			s.Date, s.LanguageCode, s.UnitName, s.DurationSec, s.WrongCount)
		if width > 0 {
			runes := []rune(line)
			if len(runes) > width {
				line = string(runes[:width])
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCalendar prints the heat calendar for the months containing
// the session log, newest month last, capped at monthsBack months.
func RenderCalendar(w io.Writer, sessions []model.SessionRecord, today time.Time, monthsBack int, useColor bool) error {
	if monthsBack <= 0 {
		monthsBack = 1
	}
	counts := DayCounts(sessions)
	start := today.AddDate(0, -(monthsBack - 1), 0)
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.Local)
	for !cursor.After(today) {
		if _, err := fmt.Fprintln(w, RenderMonth(cursor.Year(), cursor.Month(), counts, useColor)); err != nil {
			return err
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return nil
}
