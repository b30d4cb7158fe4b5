// Package stats assembles user-facing statistics from log and definition
// snapshots. The compute functions are pure like the scoring engine they sit
// on; Service adds storage, caching and fan-out around them.
package stats

import (
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	"github.com/leandrocarocca/habit-circle-demo/backend/points"
)

// cheatCheckboxName is the checkbox whose explicit-false days are surfaced as
// the "days cheated" stat, kept for compatibility with the original clients.
const cheatCheckboxName = "no_cheat_foods"

// DailyCheckboxStat is the per-checkbox summary for a daily habit.
type DailyCheckboxStat struct {
	Total         int `json:"total"`
	CurrentStreak int `json:"current_streak"`
}

// WeeklyCheckboxStat is the per-checkbox summary for a weekly habit.
type WeeklyCheckboxStat struct {
	WeeksEarned   int `json:"weeks_earned"`
	TotalSessions int `json:"total_sessions"`
}

// CheatDays counts completed days on which the cheat checkbox was explicitly
// unchecked. A day with no entry for the checkbox does not count.
type CheatDays struct {
	Total int `json:"total"`
}

// UserStats is the full statistics payload for one user.
type UserStats struct {
	TotalPoints       int                           `json:"total_points"`
	DailyPoints       int                           `json:"daily_points"`
	WeeklyPoints      int                           `json:"weekly_points"`
	TrackingStartDate *time.Time                    `json:"tracking_start_date,omitempty"`
	DailyCheckboxes   map[string]DailyCheckboxStat  `json:"daily_checkboxes"`
	WeeklyCheckboxes  map[string]WeeklyCheckboxStat `json:"weekly_checkboxes"`
	CheatDays         CheatDays                     `json:"cheat_days"`
}

// DaySummary is one calendar day in a month view: whether it was logged and
// finalized, and the daily points it earned.
type DaySummary struct {
	Date        string `json:"date"`
	HasLog      bool   `json:"has_log"`
	IsCompleted bool   `json:"is_completed"`
	Points      int    `json:"points"`
}

// ComputeUserStats builds the statistics payload from snapshots. today is
// caller-supplied so streak math stays deterministic under test. The tracking
// start date bounds every figure, inclusive at the boundary.
func ComputeUserStats(logs []models.DailyLog, defs []models.CheckboxDefinition, trackingStart *time.Time, today time.Time) *UserStats {
	agg := points.TotalPoints(logs, defs, trackingStart)

	stats := &UserStats{
		TotalPoints:       agg.TotalPoints,
		DailyPoints:       agg.DailyPoints,
		WeeklyPoints:      agg.WeeklyPoints,
		TrackingStartDate: trackingStart,
		DailyCheckboxes:   make(map[string]DailyCheckboxStat),
		WeeklyCheckboxes:  make(map[string]WeeklyCheckboxStat),
	}

	counted := countedLogs(logs, trackingStart)

	for _, def := range defs {
		if !def.IsActive {
			continue
		}
		switch def.Kind {
		case models.KindDaily:
			total := 0
			for _, log := range counted {
				if log.CheckboxStates[def.Name] {
					total++
				}
			}
			stats.DailyCheckboxes[def.Name] = DailyCheckboxStat{
				Total:         total,
				CurrentStreak: points.CurrentStreak(logs, def.Name, today, trackingStart),
			}
		case models.KindWeekly:
			sessions := 0
			for _, log := range counted {
				if log.CheckboxStates[def.Name] {
					sessions++
				}
			}
			stats.WeeklyCheckboxes[def.Name] = WeeklyCheckboxStat{
				WeeksEarned:   agg.WeeklyBreakdown[def.Name],
				TotalSessions: sessions,
			}
		}
	}

	if hasDefinition(defs, cheatCheckboxName) {
		for _, log := range counted {
			// Only an explicit false is a cheat day; an absent key means the
			// checkbox did not exist when the day was logged.
			if checked, ok := log.CheckboxStates[cheatCheckboxName]; ok && !checked {
				stats.CheatDays.Total++
			}
		}
	}

	return stats
}

// ComputeMonthCalendar builds the day-by-day view for one month. Daily points
// are shown only for completed days; weekly bonuses are a per-week figure and
// are not attributed to single days here.
func ComputeMonthCalendar(logs []models.DailyLog, defs []models.CheckboxDefinition, year int, month time.Month) []DaySummary {
	logsByDay := make(map[string]models.DailyLog, len(logs))
	for _, log := range logs {
		logsByDay[calendar.FormatLocalDate(log.LogDate)] = log
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	var days []DaySummary
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := calendar.FormatLocalDate(d)
		summary := DaySummary{Date: key}

		if log, ok := logsByDay[key]; ok {
			summary.HasLog = true
			summary.IsCompleted = log.IsCompleted
			if log.IsCompleted {
				summary.Points = points.DailyCheckboxPoints(log.CheckboxStates, defs)
			}
		}
		days = append(days, summary)
	}
	return days
}

// countedLogs filters to the logs that contribute to totals: completed and,
// when a tracking start is set, dated on or after it.
func countedLogs(logs []models.DailyLog, trackingStart *time.Time) []models.DailyLog {
	var counted []models.DailyLog
	for _, log := range logs {
		if !log.IsCompleted {
			continue
		}
		if trackingStart != nil && calendar.DayStart(log.LogDate).Before(calendar.DayStart(*trackingStart)) {
			continue
		}
		counted = append(counted, log)
	}
	return counted
}

func hasDefinition(defs []models.CheckboxDefinition, name string) bool {
	for _, def := range defs {
		if def.Name == name && def.IsActive {
			return true
		}
	}
	return false
}
