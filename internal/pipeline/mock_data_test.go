package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kevinhicks7/noaa-api/internal/domain"
)

// cdoFixture is a recorded CDO listing of city locations and their TMAX
// observations for 2025-05-08.
type cdoFixture struct {
	Locations    []domain.Station                `json:"locations"`
	Observations map[string][]domain.Observation `json:"observations"`
}

func loadCDOFixture(t *testing.T) cdoFixture {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "cdo_cities.json"))
	require.NoError(t, err)

	var f cdoFixture
	require.NoError(t, json.Unmarshal(data, &f))
	require.NotEmpty(t, f.Locations)
	return f
}

// fixtureSource serves a cdoFixture through the LocationSource interface and
// records the queries it receives.
type fixtureSource struct {
	fixture cdoFixture

	locationsErr    error
	observationsErr map[string]error

	mu         sync.Mutex
	categories []string
	queries    []domain.ObservationQuery
}

func (s *fixtureSource) Locations(_ context.Context, category string, _ int) ([]domain.Station, error) {
	s.mu.Lock()
	s.categories = append(s.categories, category)
	s.mu.Unlock()
	if s.locationsErr != nil {
		return nil, s.locationsErr
	}
	return s.fixture.Locations, nil
}

func (s *fixtureSource) Observations(_ context.Context, q domain.ObservationQuery, _ int) ([]domain.Observation, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if err := s.observationsErr[q.LocationID]; err != nil {
		return nil, err
	}
	return s.fixture.Observations[q.LocationID], nil
}

func (s *fixtureSource) queriedLocations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.queries))
	for i, q := range s.queries {
		ids[i] = q.LocationID
	}
	return ids
}
