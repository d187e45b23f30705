package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/xiaolongtang/rw/internal/model"
)

func day(s string) model.SessionRecord {
	return model.SessionRecord{Date: s, LanguageCode: "es", UnitName: "Unit 1", DurationSec: 60}
}

func TestStreakWalksBackFromToday(t *testing.T) {
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	sessions := []model.SessionRecord{
		day("2026-08-28"),
		day("2026-08-27"),
		day("2026-08-25"), // gap on the 26th stops the streak
	}
	if got := Streak(sessions, today); got != 2 {
		t.Fatalf("expected streak 2, got %d", got)
	}
}

func TestStreakZeroWithoutTodaySession(t *testing.T) {
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	sessions := []model.SessionRecord{day("2026-08-27"), day("2026-08-26")}
	if got := Streak(sessions, today); got != 0 {
		t.Fatalf("expected streak 0, got %d", got)
	}
	if got := Streak(nil, today); got != 0 {
		t.Fatalf("expected streak 0 for empty log, got %d", got)
	}
}

func TestBuildSummary(t *testing.T) {
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	sessions := []model.SessionRecord{
		day("2026-08-28"),
		day("2026-08-28"),
		day("2026-08-27"),
	}
	summary := BuildSummary(sessions, today)
	if summary.TodayCount != 2 {
		t.Fatalf("expected 2 today, got %d", summary.TodayCount)
	}
	if summary.Streak != 2 {
		t.Fatalf("expected streak 2, got %d", summary.Streak)
	}
	if summary.TotalSessions != 3 {
		t.Fatalf("expected 3 total, got %d", summary.TotalSessions)
	}
	if summary.TotalDurationSec != 180 {
		t.Fatalf("expected 180s total, got %d", summary.TotalDurationSec)
	}
}

func TestHeatLevel(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 1: 1, 2: 2, 3: 3, 10: 3}
	for count, want := range cases {
		if got := HeatLevel(count); got != want {
			t.Fatalf("HeatLevel(%d) = %d, want %d", count, got, want)
		}
	}
}

func TestDayCounts(t *testing.T) {
	counts := DayCounts([]model.SessionRecord{
		day("2026-08-28"), day("2026-08-28"), day("2026-08-27"),
	})
	if counts["2026-08-28"] != 2 || counts["2026-08-27"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestRenderMonthGrid(t *testing.T) {
	counts := map[string]int{"2026-08-03": 1, "2026-08-04": 3}
	out := RenderMonth(2026, time.August, counts, false)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if lines[0] != "August 2026" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "Mo Tu We Th Fr Sa Su" {
		t.Fatalf("unexpected weekday row %q", lines[1])
	}
	if !strings.Contains(out, heatGlyphs[1]) {
		t.Fatalf("missing level-1 glyph in %q", out)
	}
	if !strings.Contains(out, heatGlyphs[3]) {
		t.Fatalf("missing level-3 glyph in %q", out)
	}
	// August 2026 spans 6 Monday-first weeks.
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d: %q", len(lines), out)
	}
}

func TestRenderSummary(t *testing.T) {
	var b strings.Builder
	summary := Summary{TodayCount: 1, Streak: 3, TotalSessions: 5, TotalDurationSec: 90}
	if err := RenderSummary(&b, summary); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Today: 1", "Streak: 3", "Completed units: 5", "1.5 min"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestRenderRecentLimitsAndTruncates(t *testing.T) {
	sessions := []model.SessionRecord{
		{Date: "2026-08-28", LanguageCode: "es", UnitName: "A very long unit name indeed", DurationSec: 10, WrongCount: 1},
		{Date: "2026-08-27", LanguageCode: "es", UnitName: "Unit 2", DurationSec: 20},
		{Date: "2026-08-26", LanguageCode: "es", UnitName: "Unit 3", DurationSec: 30},
	}

	var b strings.Builder
	if err := RenderRecent(&b, sessions, 2, 20); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if len([]rune(line)) > 20 {
			t.Fatalf("line not truncated: %q", line)
		}
	}

	b.Reset()
	if err := RenderRecent(&b, nil, 5, 80); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(b.String(), "No sessions") {
		t.Fatalf("unexpected empty output %q", b.String())
	}
}
