package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekRangeEveryWeekday(t *testing.T) {
	// Dec 9 2024 is a Monday; walk the whole week through the following Sunday.
	monday := time.Date(2024, 12, 9, 0, 0, 0, 0, time.Local)

	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		weekStart, weekEnd := WeekRange(day)

		assert.Equal(t, "2024-12-09", FormatLocalDate(weekStart), "weekStart for %s", FormatLocalDate(day))
		assert.Equal(t, "2024-12-15", FormatLocalDate(weekEnd), "weekEnd for %s", FormatLocalDate(day))
		assert.Equal(t, time.Monday, weekStart.Weekday())
		assert.Equal(t, time.Sunday, weekEnd.Weekday())
	}
}

func TestWeekRangeBoundaries(t *testing.T) {
	weekStart, weekEnd := WeekRange(time.Date(2024, 12, 11, 15, 30, 0, 0, time.Local))

	assert.Equal(t, 0, weekStart.Hour())
	assert.Equal(t, 0, weekStart.Minute())
	assert.Equal(t, 23, weekEnd.Hour())
	assert.Equal(t, 59, weekEnd.Minute())
	assert.Equal(t, 59, weekEnd.Second())
}

func TestWeekRangeCrossesMonthAndYear(t *testing.T) {
	// Jan 1 2025 is a Wednesday; its week starts Dec 30 2024.
	weekStart, weekEnd := WeekRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local))

	assert.Equal(t, "2024-12-30", FormatLocalDate(weekStart))
	assert.Equal(t, "2025-01-05", FormatLocalDate(weekEnd))
}

func TestFormatLocalDateIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 12, 9, 0, 0, 1, 0, time.Local)
	night := time.Date(2024, 12, 9, 23, 59, 59, 0, time.Local)

	assert.Equal(t, FormatLocalDate(morning), FormatLocalDate(night))
	assert.Equal(t, "2024-12-09", FormatLocalDate(morning))
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(
		time.Date(2024, 12, 9, 1, 0, 0, 0, time.Local),
		time.Date(2024, 12, 9, 22, 0, 0, 0, time.Local),
	))
	assert.False(t, SameDay(
		time.Date(2024, 12, 9, 23, 59, 59, 0, time.Local),
		time.Date(2024, 12, 10, 0, 0, 0, 0, time.Local),
	))
}

func TestDayStart(t *testing.T) {
	start := DayStart(time.Date(2024, 12, 9, 17, 45, 12, 999, time.Local))

	assert.Equal(t, time.Date(2024, 12, 9, 0, 0, 0, 0, time.Local), start)
}
