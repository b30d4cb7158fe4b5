// Package calendar holds the pure date arithmetic the scoring engine is built
// on. Dates are compared as local calendar days, never as instants, so a log
// written at 23:00 and one written at 01:00 on the same day always land in the
// same bucket regardless of timezone.
package calendar

import "time"

// DayStart truncates t to midnight in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatLocalDate renders t as YYYY-MM-DD using its local calendar date.
// Two times on the same calendar day format identically no matter their
// time of day.
func FormatLocalDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return FormatLocalDate(a) == FormatLocalDate(b)
}

// WeekRange returns the Monday-start week containing t. The returned weekStart
// is the Monday at 00:00:00 and weekEnd the following Sunday at 23:59:59.
// Every date belongs to exactly one such week; the weekStart date is the
// week's identity when deduplicating.
func WeekRange(t time.Time) (weekStart, weekEnd time.Time) {
	dow := int(t.Weekday()) // Sunday = 0
	mondayOffset := 1 - dow
	if dow == 0 {
		mondayOffset = -6
	}

	weekStart = DayStart(t.AddDate(0, 0, mondayOffset))
	end := weekStart.AddDate(0, 0, 6)
	weekEnd = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	return weekStart, weekEnd
}
