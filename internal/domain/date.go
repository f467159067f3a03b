package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used by CDO query strings and
// post captions.
const DateLayout = "2006-01-02"

// ClimatologyDays is the length of the long-term-mean series.
const ClimatologyDays = 365

// ParseDate parses a YYYY-MM-DD string into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayOfYear returns the 1-based ordinal day of t within its year.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// ClimatologyIndex returns the zero-based slice index into the 365-day
// climatology for t. December 31 of a leap year has no slice.
func ClimatologyIndex(t time.Time) (int, error) {
	idx := DayOfYear(t) - 1
	if idx >= ClimatologyDays {
		return 0, fmt.Errorf("day-of-year %d exceeds %d-day climatology", DayOfYear(t), ClimatologyDays)
	}
	return idx, nil
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
