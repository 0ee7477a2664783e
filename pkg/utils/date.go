package utils

import (
	"time"
)

// TimeNowUTC returns the current time in UTC.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// DayOfWeekMondayZero maps the weekday of t to 0=Monday .. 6=Sunday.
func DayOfWeekMondayZero(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// IsMonthEnd reports whether t falls on the last day of its month.
func IsMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
