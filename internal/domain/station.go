package domain

import "strings"

// Station is a CDO location or station record. Locations (cities, states,
// countries) carry no coordinates; stations do.
type Station struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MinDate      string  `json:"mindate,omitempty"`
	MaxDate      string  `json:"maxdate,omitempty"`
	DataCoverage float64 `json:"datacoverage,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Elevation    float64 `json:"elevation,omitempty"`
}

// FilterByPrefix returns the stations whose ID starts with prefix, in input
// order. The input slice is not modified.
func FilterByPrefix(stations []Station, prefix string) []Station {
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		if strings.HasPrefix(s.ID, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// Limit returns at most n stations from the head of the slice. n <= 0 means no limit.
func Limit(stations []Station, n int) []Station {
	if n <= 0 || len(stations) <= n {
		return stations
	}
	return stations[:n]
}
