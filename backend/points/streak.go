package points

import (
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
)

// maxStreakScan bounds the backward walk so sparse data can never send it
// arbitrarily far into the past.
const maxStreakScan = 1000

// CurrentStreak counts consecutive days, walking backward from today, on
// which the named checkbox was checked on a completed log. The caller
// supplies today so the walk never reads a wall clock.
//
// If today has no completed log at all the walk skips it without breaking:
// the user simply has not logged yet. A completed log for today with the
// checkbox unchecked breaks the streak immediately. The walk also stops when
// the cursor passes startDate, when given.
//
// Streaks are independent per checkbox name; call once per checkbox.
func CurrentStreak(logs []models.DailyLog, name string, today time.Time, startDate *time.Time) int {
	completedByDay := make(map[string]models.DailyLog, len(logs))
	for _, log := range logs {
		if log.IsCompleted {
			completedByDay[calendar.FormatLocalDate(log.LogDate)] = log
		}
	}

	streak := 0
	cursor := calendar.DayStart(today)
	for i := 0; i < maxStreakScan; i++ {
		if startDate != nil && cursor.Before(calendar.DayStart(*startDate)) {
			break
		}

		log, logged := completedByDay[calendar.FormatLocalDate(cursor)]
		switch {
		case logged && log.CheckboxStates[name]:
			streak++
		case i == 0 && !logged:
			// Grace for an unlogged today; check yesterday.
		default:
			return streak
		}
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
