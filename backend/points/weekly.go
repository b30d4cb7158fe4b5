package points

import (
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
)

// WeeklyCheckboxPoints scores one week. It restricts logs to those whose
// calendar date falls inside [weekStart, weekEnd] inclusive and, for each
// active weekly definition, awards the definition's full points when the
// number of checked days reaches the threshold. The bonus is flat: exceeding
// the threshold does not scale it. Every active weekly definition gets an
// entry in the result, explicitly zero when the threshold was missed, so
// callers can sum the values without key checks.
//
// A zero threshold is never satisfiable and always scores zero; that is a
// definition-management problem, not an error here.
//
// Note this function does not look at IsCompleted. Filtering to completed
// days is the caller's job (TotalPoints does it before calling in).
func WeeklyCheckboxPoints(logs []models.DailyLog, defs []models.CheckboxDefinition, weekStart, weekEnd time.Time) map[string]int {
	weekly := make(map[string]int)
	inWeek := logsInRange(logs, weekStart, weekEnd)

	for _, def := range defs {
		if def.Kind != models.KindWeekly || !def.IsActive {
			continue
		}
		if def.WeeklyThreshold > 0 && countChecked(inWeek, def.Name) >= def.WeeklyThreshold {
			weekly[def.Name] = def.Points
		} else {
			weekly[def.Name] = 0
		}
	}
	return weekly
}

// logsInRange filters logs to those whose calendar date lies in [from, to]
// inclusive. Comparison is on truncated days, so the time of day on either
// bound never shifts a log across the boundary.
func logsInRange(logs []models.DailyLog, from, to time.Time) []models.DailyLog {
	fromDay := calendar.DayStart(from)
	toDay := calendar.DayStart(to)

	var in []models.DailyLog
	for _, log := range logs {
		day := calendar.DayStart(log.LogDate)
		if !day.Before(fromDay) && !day.After(toDay) {
			in = append(in, log)
		}
	}
	return in
}

// countChecked counts the logs on which the named checkbox is checked.
func countChecked(logs []models.DailyLog, name string) int {
	count := 0
	for _, log := range logs {
		if log.CheckboxStates[name] {
			count++
		}
	}
	return count
}
