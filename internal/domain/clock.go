package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used to derive default target dates.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Yesterday returns the calendar day before today, as a UTC midnight.
func Yesterday() time.Time {
	now := clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -1)
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}

// TargetDate resolves the day a run covers: an explicit YYYY-MM-DD override
// wins, then a configured date, then yesterday.
func TargetDate(override string, configured time.Time) (time.Time, error) {
	if override != "" {
		return ParseDate(override)
	}
	if !configured.IsZero() {
		return configured, nil
	}
	return Yesterday(), nil
}
