package points

import (
	"testing"

	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	"github.com/stretchr/testify/assert"
)

func TestCurrentStreakGraceForUnloggedToday(t *testing.T) {
	// Three consecutive qualifying days ending yesterday, today not logged.
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 9), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 10), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true}),
	}
	today := day(2024, 12, 12)

	assert.Equal(t, 3, CurrentStreak(logs, "logged_food", today, nil))
}

func TestCurrentStreakIncludesToday(t *testing.T) {
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 10), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 12), map[string]bool{"logged_food": true}),
	}
	today := day(2024, 12, 12)

	assert.Equal(t, 3, CurrentStreak(logs, "logged_food", today, nil))
}

func TestCurrentStreakLoggedAndFailedTodayBreaks(t *testing.T) {
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 10), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 12), map[string]bool{"logged_food": false}),
	}
	today := day(2024, 12, 12)

	assert.Equal(t, 0, CurrentStreak(logs, "logged_food", today, nil))
}

func TestCurrentStreakIncompleteTodayGetsGrace(t *testing.T) {
	// A draft log for today is treated like no log at all.
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true}),
		incompleteLog(day(2024, 12, 12), map[string]bool{"logged_food": true}),
	}
	today := day(2024, 12, 12)

	assert.Equal(t, 1, CurrentStreak(logs, "logged_food", today, nil))
}

func TestCurrentStreakGapBreaks(t *testing.T) {
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 8), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 9), map[string]bool{"logged_food": true}),
		// Dec 10 missing.
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true}),
	}
	today := day(2024, 12, 11)

	assert.Equal(t, 1, CurrentStreak(logs, "logged_food", today, nil))
}

func TestCurrentStreakIncompleteDayBreaks(t *testing.T) {
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 9), map[string]bool{"logged_food": true}),
		incompleteLog(day(2024, 12, 10), map[string]bool{"logged_food": true}),
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true}),
	}
	today := day(2024, 12, 11)

	assert.Equal(t, 1, CurrentStreak(logs, "logged_food", today, nil))
}

func TestCurrentStreakStopsAtStartDate(t *testing.T) {
	var logs []models.DailyLog
	for i := 1; i <= 10; i++ {
		logs = append(logs, completedLog(day(2024, 12, i), map[string]bool{"logged_food": true}))
	}
	today := day(2024, 12, 10)
	start := day(2024, 12, 6)

	assert.Equal(t, 5, CurrentStreak(logs, "logged_food", today, &start))
}

func TestCurrentStreakIndependentPerCheckbox(t *testing.T) {
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 10), map[string]bool{"logged_food": true, "protein_goal_met": false}),
		completedLog(day(2024, 12, 11), map[string]bool{"logged_food": true, "protein_goal_met": true}),
	}
	today := day(2024, 12, 11)

	assert.Equal(t, 2, CurrentStreak(logs, "logged_food", today, nil))
	assert.Equal(t, 1, CurrentStreak(logs, "protein_goal_met", today, nil))
}

func TestCurrentStreakNoLogs(t *testing.T) {
	assert.Equal(t, 0, CurrentStreak(nil, "logged_food", day(2024, 12, 12), nil))
}
