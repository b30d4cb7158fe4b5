package points

import (
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
)

// Aggregate is the scoring result for a span of logs. WeeklyBreakdown maps
// each active weekly checkbox name to the number of weeks in which its
// threshold was met. The value is recomputed on every call and never cached
// by the engine.
type Aggregate struct {
	TotalPoints     int            `json:"total_points"`
	DailyPoints     int            `json:"daily_points"`
	WeeklyPoints    int            `json:"weekly_points"`
	WeeklyBreakdown map[string]int `json:"weekly_breakdown"`
}

// TotalPoints scores an arbitrary span of a user's logs, in any order.
// Incomplete logs contribute nothing anywhere, even when their checkboxes are
// set, and a startDate (inclusive, compared as a calendar day) bounds the
// span when given. Daily points are summed per completed log; weekly bonuses
// are computed once per distinct Monday-start week against the full filtered
// span restricted to that week, so a week holding several logs is never
// counted twice.
func TotalPoints(logs []models.DailyLog, defs []models.CheckboxDefinition, startDate *time.Time) Aggregate {
	filtered := completedSince(logs, startDate)

	dailyPoints := 0
	for _, log := range filtered {
		dailyPoints += DailyCheckboxPoints(log.CheckboxStates, defs)
	}

	breakdown := make(map[string]int)
	for _, def := range defs {
		if def.Kind == models.KindWeekly && def.IsActive {
			breakdown[def.Name] = 0
		}
	}

	weeklyPoints := 0
	processedWeeks := make(map[string]bool)
	for _, log := range filtered {
		weekStart, weekEnd := calendar.WeekRange(log.LogDate)
		weekKey := calendar.FormatLocalDate(weekStart)
		if processedWeeks[weekKey] {
			continue
		}
		processedWeeks[weekKey] = true

		for _, bonus := range WeeklyCheckboxPoints(filtered, defs, weekStart, weekEnd) {
			weeklyPoints += bonus
		}

		// Weeks earned is re-evaluated per week from the raw counts rather
		// than from the bonus map, so a zero-point weekly checkbox still
		// registers its earned weeks.
		inWeek := logsInRange(filtered, weekStart, weekEnd)
		for _, def := range defs {
			if def.Kind != models.KindWeekly || !def.IsActive {
				continue
			}
			if def.WeeklyThreshold > 0 && countChecked(inWeek, def.Name) >= def.WeeklyThreshold {
				breakdown[def.Name]++
			}
		}
	}

	return Aggregate{
		TotalPoints:     dailyPoints + weeklyPoints,
		DailyPoints:     dailyPoints,
		WeeklyPoints:    weeklyPoints,
		WeeklyBreakdown: breakdown,
	}
}

// completedSince filters logs to completed ones dated on or after startDate,
// when a startDate is given.
func completedSince(logs []models.DailyLog, startDate *time.Time) []models.DailyLog {
	var filtered []models.DailyLog
	for _, log := range logs {
		if !log.IsCompleted {
			continue
		}
		if startDate != nil && calendar.DayStart(log.LogDate).Before(calendar.DayStart(*startDate)) {
			continue
		}
		filtered = append(filtered, log)
	}
	return filtered
}
