package points

import (
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/models"
)

// The standard fixture mirrors the production configuration: four daily
// checkboxes at one point each plus a weekly gym checkbox worth three points
// at a threshold of three sessions.
func testDefinitions() []models.CheckboxDefinition {
	return []models.CheckboxDefinition{
		{Name: "logged_food", Label: "Logged food", Points: 1, Kind: models.KindDaily, IsActive: true},
		{Name: "within_calorie_limit", Label: "Within calorie limit", Points: 1, Kind: models.KindDaily, IsActive: true},
		{Name: "protein_goal_met", Label: "Protein goal met", Points: 1, Kind: models.KindDaily, IsActive: true},
		{Name: "no_cheat_foods", Label: "No cheat foods", Points: 1, Kind: models.KindDaily, IsActive: true},
		{Name: "gym_session", Label: "Gym session", Points: 3, Kind: models.KindWeekly, WeeklyThreshold: 3, IsActive: true},
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.Local)
}

func completedLog(date time.Time, states map[string]bool) models.DailyLog {
	return models.DailyLog{LogDate: date, CheckboxStates: states, IsCompleted: true}
}

func incompleteLog(date time.Time, states map[string]bool) models.DailyLog {
	return models.DailyLog{LogDate: date, CheckboxStates: states, IsCompleted: false}
}
