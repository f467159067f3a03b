package opendap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// Variable is the CPC daily maximum temperature variable name.
const Variable = "tmax"

// Loader reads the CPC daily and climatology grids for a target date.
type Loader struct {
	client           *Client
	dailyURLTemplate string
	climatologyURL   string
	variable         string
	metrics          *observability.Metrics
	logger           *slog.Logger
}

// NewLoader creates a Loader. A zero OPeNDAPTimeout disables request timeouts.
func NewLoader(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Loader {
	return &Loader{
		client:           NewClient(&http.Client{Timeout: cfg.OPeNDAPTimeout}, logger),
		dailyURLTemplate: cfg.CPCDailyURLTemplate,
		climatologyURL:   cfg.CPCClimatologyURL,
		variable:         Variable,
		metrics:          metrics,
		logger:           logger,
	}
}

// Load returns the observed grid for date and the climatology grid for its
// day-of-year. Either failure fails the whole load.
func (l *Loader) Load(ctx context.Context, date time.Time) (daily, climatology domain.Grid, err error) {
	daily, err = l.LoadDaily(ctx, date)
	if err != nil {
		return domain.Grid{}, domain.Grid{}, err
	}
	climatology, err = l.LoadClimatology(ctx, date)
	if err != nil {
		return domain.Grid{}, domain.Grid{}, err
	}
	return daily, climatology, nil
}

// LoadDaily reads the slice of the per-year dataset whose time coordinate
// falls on date.
func (l *Loader) LoadDaily(ctx context.Context, date time.Time) (domain.Grid, error) {
	start := time.Now()
	datasetURL := fmt.Sprintf(l.dailyURLTemplate, date.Year())

	dims, err := l.dims(ctx, datasetURL)
	if err != nil {
		return domain.Grid{}, err
	}
	timeName := dims[0].Name

	das, err := l.client.DAS(ctx, datasetURL)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("daily dataset attributes: %w", err)
	}
	axis, err := ParseTimeUnits(das[timeName]["units"])
	if err != nil {
		return domain.Grid{}, fmt.Errorf("daily dataset %s: %w", timeName, err)
	}

	arrays, err := l.client.ASCII(ctx, datasetURL, timeName)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("daily dataset time axis: %w", err)
	}
	idx, ok := axis.IndexOf(arrays[timeName].Values, date)
	if !ok {
		return domain.Grid{}, fmt.Errorf("%w: %s in %s", domain.ErrNoTimeStep, domain.FormatDate(date), datasetURL)
	}

	grid, err := l.slice(ctx, datasetURL, dims, idx)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("daily dataset: %w", err)
	}

	l.metrics.DatasetLoadDuration.WithLabelValues("daily").Observe(time.Since(start).Seconds())
	l.logger.Info("daily grid loaded", "url", datasetURL, "date", domain.FormatDate(date), "time_index", idx)
	return grid, nil
}

// LoadClimatology reads the long-term-mean slice at index dayOfYear-1.
func (l *Loader) LoadClimatology(ctx context.Context, date time.Time) (domain.Grid, error) {
	start := time.Now()

	idx, err := domain.ClimatologyIndex(date)
	if err != nil {
		return domain.Grid{}, err
	}

	dims, err := l.dims(ctx, l.climatologyURL)
	if err != nil {
		return domain.Grid{}, err
	}
	if idx >= dims[0].Size {
		return domain.Grid{}, fmt.Errorf("climatology index %d out of range (%d steps)", idx, dims[0].Size)
	}

	grid, err := l.slice(ctx, l.climatologyURL, dims, idx)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("climatology dataset: %w", err)
	}

	l.metrics.DatasetLoadDuration.WithLabelValues("climatology").Observe(time.Since(start).Seconds())
	l.logger.Info("climatology grid loaded", "url", l.climatologyURL, "day_of_year", domain.DayOfYear(date), "time_index", idx)
	return grid, nil
}

// dims returns the [time, lat, lon] dimensions of the temperature variable.
func (l *Loader) dims(ctx context.Context, datasetURL string) ([]Dim, error) {
	dds, err := l.client.DDS(ctx, datasetURL)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", datasetURL, err)
	}
	dims, ok := dds.Vars[l.variable]
	if !ok {
		return nil, fmt.Errorf("variable %s not found in %s", l.variable, datasetURL)
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("variable %s has %d dimensions, want 3 (time, lat, lon)", l.variable, len(dims))
	}
	return dims, nil
}

func (l *Loader) slice(ctx context.Context, datasetURL string, dims []Dim, timeIdx int) (domain.Grid, error) {
	ce := fmt.Sprintf("%s[%d:1:%d][0:1:%d][0:1:%d]", l.variable, timeIdx, timeIdx, dims[1].Size-1, dims[2].Size-1)
	arrays, err := l.client.ASCII(ctx, datasetURL, ce)
	if err != nil {
		return domain.Grid{}, err
	}

	values, ok := arrays[l.variable]
	if !ok {
		return domain.Grid{}, fmt.Errorf("response has no %s array", l.variable)
	}
	lats, ok := arrays[dims[1].Name]
	if !ok {
		return domain.Grid{}, fmt.Errorf("response has no %s map", dims[1].Name)
	}
	lons, ok := arrays[dims[2].Name]
	if !ok {
		return domain.Grid{}, fmt.Errorf("response has no %s map", dims[2].Name)
	}
	return domain.NewGrid(lats.Values, lons.Values, values.Values)
}
