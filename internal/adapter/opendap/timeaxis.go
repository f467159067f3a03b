package opendap

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// unitsRe matches CF time units, e.g. "hours since 1900-01-01 00:00:0.0".
var unitsRe = regexp.MustCompile(`^\s*(\w+)\s+since\s+(\d{1,4})-(\d{1,2})-(\d{1,2})(?:[ T](\d{1,2}):(\d{1,2})(?::(\d{1,2}(?:\.\d*)?))?)?`)

// TimeAxis decodes numeric CF time coordinates on the proleptic Gregorian calendar.
type TimeAxis struct {
	Base time.Time
	Unit time.Duration
}

// ParseTimeUnits parses a CF "<unit> since <date>[ <time>]" string.
func ParseTimeUnits(units string) (TimeAxis, error) {
	m := unitsRe.FindStringSubmatch(units)
	if m == nil {
		return TimeAxis{}, fmt.Errorf("unsupported time units %q", units)
	}

	var unit time.Duration
	switch strings.TrimSuffix(strings.ToLower(m[1]), "s") {
	case "day":
		unit = 24 * time.Hour
	case "hour":
		unit = time.Hour
	case "minute":
		unit = time.Minute
	case "second":
		unit = time.Second
	default:
		return TimeAxis{}, fmt.Errorf("unsupported time unit %q", m[1])
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	var sec float64
	if m[7] != "" {
		sec, _ = strconv.ParseFloat(m[7], 64)
	}
	base := time.Date(atoi(m[2]), time.Month(atoi(m[3])), atoi(m[4]), atoi(m[5]), atoi(m[6]), 0, 0, time.UTC).
		Add(time.Duration(sec * float64(time.Second)))
	return TimeAxis{Base: base, Unit: unit}, nil
}

// Decode converts a coordinate value to a UTC time. Whole days are applied
// with AddDate so distant epochs do not overflow time.Duration.
func (a TimeAxis) Decode(v float64) time.Time {
	perDay := float64(24 * time.Hour / a.Unit)
	days := math.Floor(v / perDay)
	rest := (v - days*perDay) * float64(a.Unit)
	return a.Base.AddDate(0, 0, int(days)).Add(time.Duration(rest))
}

// IndexOf returns the first coordinate that falls on the same calendar day as day.
func (a TimeAxis) IndexOf(coords []float64, day time.Time) (int, bool) {
	for i, v := range coords {
		t := a.Decode(v)
		if t.Year() == day.Year() && t.YearDay() == day.YearDay() {
			return i, true
		}
	}
	return 0, false
}
