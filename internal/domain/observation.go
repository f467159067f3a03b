package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Data type identifiers in the GHCND dataset.
const (
	DataTypeTMAX = "TMAX"
	DataTypeTMIN = "TMIN"
)

// ObservationQuery describes one CDO "data" request. StartDate and EndDate are
// inclusive.
type ObservationQuery struct {
	DatasetID  string
	LocationID string
	StartDate  time.Time
	EndDate    time.Time
	DataTypes  []string
	Units      string // "metric" or "standard"
}

// NewDailyQuery builds a single-day query for one location.
func NewDailyQuery(datasetID, locationID string, day time.Time, dataTypes ...string) ObservationQuery {
	return ObservationQuery{
		DatasetID:  datasetID,
		LocationID: locationID,
		StartDate:  day,
		EndDate:    day,
		DataTypes:  dataTypes,
		Units:      "metric",
	}
}

// Observation is one value from the CDO "data" endpoint.
type Observation struct {
	Date       string  `json:"date"` // e.g. "2025-05-08T00:00:00"
	DataType   string  `json:"datatype"`
	Station    string  `json:"station"`
	Attributes string  `json:"attributes,omitempty"`
	Value      float64 `json:"value"`
}

// MaxOf returns the largest value of the given data type across observations.
func MaxOf(obs []Observation, dataType string) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, o := range obs {
		if o.DataType != dataType {
			continue
		}
		if !found || o.Value > best {
			best = o.Value
			found = true
		}
	}
	return best, found
}

// CityReading is the hottest TMAX reported by any station in a city.
type CityReading struct {
	City     Station
	MaxTemp  float64
	Stations int
}

// Digest ranks city readings for one day.
type Digest struct {
	Date     time.Time
	Readings []CityReading
}

// BuildDigest keeps the n hottest readings, ties broken by city ID.
func BuildDigest(date time.Time, readings []CityReading, n int) Digest {
	ranked := make([]CityReading, len(readings))
	copy(ranked, readings)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MaxTemp != ranked[j].MaxTemp {
			return ranked[i].MaxTemp > ranked[j].MaxTemp
		}
		return ranked[i].City.ID < ranked[j].City.ID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return Digest{Date: date, Readings: ranked}
}

// Empty reports whether the digest has nothing worth posting.
func (d Digest) Empty() bool {
	return len(d.Readings) == 0
}

// MaxPostLength is the Bluesky post limit in graphemes.
const MaxPostLength = 300

// Text renders the digest as a post body, dropping trailing lines that would
// exceed MaxPostLength.
func (d Digest) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hottest U.S. cities on %s (daily max °C):", FormatDate(d.Date))
	for i, r := range d.Readings {
		line := fmt.Sprintf("\n%d. %s %.1f", i+1, r.City.Name, r.MaxTemp)
		if len([]rune(b.String()))+len([]rune(line)) > MaxPostLength {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}
