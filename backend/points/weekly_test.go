package points

import (
	"testing"
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	"github.com/stretchr/testify/assert"
)

func gymWeek(t *testing.T, checkedDays int) ([]models.DailyLog, time.Time, time.Time) {
	t.Helper()
	weekStart, weekEnd := calendar.WeekRange(day(2024, 12, 9))

	var logs []models.DailyLog
	for i := 0; i < checkedDays; i++ {
		logs = append(logs, completedLog(day(2024, 12, 9+i), map[string]bool{"gym_session": true}))
	}
	return logs, weekStart, weekEnd
}

func TestWeeklyCheckboxPointsThresholdMet(t *testing.T) {
	logs, weekStart, weekEnd := gymWeek(t, 3)

	weekly := WeeklyCheckboxPoints(logs, testDefinitions(), weekStart, weekEnd)

	assert.Equal(t, 3, weekly["gym_session"])
}

func TestWeeklyCheckboxPointsOneBelowThreshold(t *testing.T) {
	logs, weekStart, weekEnd := gymWeek(t, 2)

	weekly := WeeklyCheckboxPoints(logs, testDefinitions(), weekStart, weekEnd)

	assert.Equal(t, 0, weekly["gym_session"])
}

func TestWeeklyCheckboxPointsBonusIsFlat(t *testing.T) {
	logs, weekStart, weekEnd := gymWeek(t, 5)

	weekly := WeeklyCheckboxPoints(logs, testDefinitions(), weekStart, weekEnd)

	assert.Equal(t, 3, weekly["gym_session"], "exceeding the threshold must not scale the bonus")
}

func TestWeeklyCheckboxPointsEveryActiveWeeklyGetsAnEntry(t *testing.T) {
	defs := append(testDefinitions(),
		models.CheckboxDefinition{Name: "meal_prep", Points: 2, Kind: models.KindWeekly, WeeklyThreshold: 2, IsActive: true})
	logs, weekStart, weekEnd := gymWeek(t, 3)

	weekly := WeeklyCheckboxPoints(logs, defs, weekStart, weekEnd)

	assert.Len(t, weekly, 2)
	assert.Contains(t, weekly, "meal_prep")
	assert.Equal(t, 0, weekly["meal_prep"], "unmet thresholds are explicit zeros, not absent keys")
}

func TestWeeklyCheckboxPointsZeroThresholdNeverSatisfied(t *testing.T) {
	defs := []models.CheckboxDefinition{
		{Name: "gym_session", Points: 3, Kind: models.KindWeekly, WeeklyThreshold: 0, IsActive: true},
	}
	logs, weekStart, weekEnd := gymWeek(t, 7)

	weekly := WeeklyCheckboxPoints(logs, defs, weekStart, weekEnd)

	assert.Equal(t, 0, weekly["gym_session"])
}

func TestWeeklyCheckboxPointsFiltersByDateOnly(t *testing.T) {
	// Incomplete logs still count here: completion filtering is the
	// aggregate's responsibility, not this function's.
	weekStart, weekEnd := calendar.WeekRange(day(2024, 12, 9))
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 9), map[string]bool{"gym_session": true}),
		incompleteLog(day(2024, 12, 10), map[string]bool{"gym_session": true}),
		completedLog(day(2024, 12, 11), map[string]bool{"gym_session": true}),
		completedLog(day(2024, 12, 16), map[string]bool{"gym_session": true}), // next week
	}

	weekly := WeeklyCheckboxPoints(logs, testDefinitions(), weekStart, weekEnd)

	assert.Equal(t, 3, weekly["gym_session"])
}

func TestWeeklyCheckboxPointsWeekBoundariesInclusive(t *testing.T) {
	weekStart, weekEnd := calendar.WeekRange(day(2024, 12, 11))
	logs := []models.DailyLog{
		completedLog(day(2024, 12, 9), map[string]bool{"gym_session": true}),  // Monday
		completedLog(day(2024, 12, 15), map[string]bool{"gym_session": true}), // Sunday
		completedLog(day(2024, 12, 8), map[string]bool{"gym_session": true}),  // previous Sunday
		completedLog(day(2024, 12, 16), map[string]bool{"gym_session": true}), // next Monday
	}
	defs := []models.CheckboxDefinition{
		{Name: "gym_session", Points: 3, Kind: models.KindWeekly, WeeklyThreshold: 2, IsActive: true},
	}

	weekly := WeeklyCheckboxPoints(logs, defs, weekStart, weekEnd)

	assert.Equal(t, 3, weekly["gym_session"], "Monday and Sunday belong to the week; neighbors do not")
}

func TestWeeklyCheckboxPointsEmptyInputs(t *testing.T) {
	weekStart, weekEnd := calendar.WeekRange(day(2024, 12, 9))

	weekly := WeeklyCheckboxPoints(nil, testDefinitions(), weekStart, weekEnd)

	assert.Equal(t, 0, weekly["gym_session"])
}
