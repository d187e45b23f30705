// Package stats contains statistics calculations and reporting.
package stats

import (
	"time"

	"github.com/xiaolongtang/rw/internal/model"
)

// Summary aggregates the session log for the overview cards.
type Summary struct {
	TodayCount       int
	Streak           int
	TotalSessions    int
	TotalDurationSec int
}

// DayCounts counts completed sessions per calendar day.
func DayCounts(sessions []model.SessionRecord) map[string]int {
	counts := make(map[string]int, len(sessions))
	for _, s := range sessions {
		counts[s.Date]++
	}
	return counts
}

// Streak counts consecutive practice days, walking backward from today
// while a session exists for the day and stopping at the first gap.
func Streak(sessions []model.SessionRecord, today time.Time) int {
	dates := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		dates[s.Date] = struct{}{}
	}
	streak := 0
	cursor := today
	for {
		if _, ok := dates[cursor.Format(model.DateLayout)]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// TodayCount counts today's completed sessions.
func TodayCount(sessions []model.SessionRecord, today time.Time) int {
	date := today.Format(model.DateLayout)
	count := 0
	for _, s := range sessions {
		if s.Date == date {
			count++
		}
	}
	return count
}

// BuildSummary computes the overview numbers from the full session log.
func BuildSummary(sessions []model.SessionRecord, today time.Time) Summary {
	summary := Summary{
		TodayCount:    TodayCount(sessions, today),
		Streak:        Streak(sessions, today),
		TotalSessions: len(sessions),
	}
	for _, s := range sessions {
		summary.TotalDurationSec += s.DurationSec
	}
	return summary
}

// HeatLevel buckets a per-day session count into 0-3 for the calendar.
func HeatLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count == 2:
		return 2
	default:
		return 3
	}
}
