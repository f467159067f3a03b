package pipeline

import "github.com/kevinhicks7/noaa-api/internal/domain"

// cityReading reduces one city's observations to its hottest TMAX and the
// number of stations that reported one. ok is false when no station did.
func cityReading(city domain.Station, obs []domain.Observation) (domain.CityReading, bool) {
	maxTemp, ok := domain.MaxOf(obs, domain.DataTypeTMAX)
	if !ok {
		return domain.CityReading{}, false
	}

	reporting := make(map[string]struct{})
	for _, o := range obs {
		if o.DataType == domain.DataTypeTMAX {
			reporting[o.Station] = struct{}{}
		}
	}
	return domain.CityReading{City: city, MaxTemp: maxTemp, Stations: len(reporting)}, true
}
