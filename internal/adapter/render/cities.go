package render

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var defaultCities []byte

// City is a labelled marker position.
type City struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// DefaultCities returns the built-in list of the largest U.S. cities.
func DefaultCities() []City {
	cities, err := parseCities(defaultCities)
	if err != nil {
		panic(fmt.Sprintf("embedded cities.yaml: %v", err))
	}
	return cities
}

// LoadCities reads a YAML list of cities from path. An empty path returns
// DefaultCities.
func LoadCities(path string) ([]City, error) {
	if path == "" {
		return DefaultCities(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities file: %w", err)
	}
	cities, err := parseCities(data)
	if err != nil {
		return nil, fmt.Errorf("cities file %s: %w", path, err)
	}
	return cities, nil
}

func parseCities(data []byte) ([]City, error) {
	var cities []City
	if err := yaml.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("decode cities: %w", err)
	}
	for i, c := range cities {
		if c.Name == "" {
			return nil, fmt.Errorf("city %d has no name", i)
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 360 {
			return nil, fmt.Errorf("city %s has invalid position %.4f,%.4f", c.Name, c.Lat, c.Lon)
		}
	}
	return cities, nil
}
