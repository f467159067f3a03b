package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// LocationSource lists CDO locations and their observations.
type LocationSource interface {
	Locations(ctx context.Context, category string, pageSize int) ([]domain.Station, error)
	Observations(ctx context.Context, q domain.ObservationQuery, pageSize int) ([]domain.Observation, error)
}

// StationPublisher forwards fetched locations to a downstream sink.
type StationPublisher interface {
	PublishStations(ctx context.Context, stations []domain.Station) error
}

// Poster publishes a social post.
type Poster interface {
	Post(ctx context.Context, post domain.Post) error
}

// StationOptions configures a StationPipeline run.
type StationOptions struct {
	Category   string // CDO location category, e.g. CITY
	Prefix     string // location ID prefix kept after listing, e.g. CITY:US
	Dataset    string // CDO dataset for observations, e.g. GHCND
	PageSize   int
	MaxCities  int // 0 keeps every matching city
	DigestSize int
	PostDigest bool
	DryRun     bool
}

// StationPipeline lists U.S. cities from CDO and ranks them by daily maximum
// temperature.
type StationPipeline struct {
	source    LocationSource
	publisher StationPublisher
	poster    Poster
	opts      StationOptions
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewStationPipeline wires the station stages. publisher and poster may be
// nil when the Kafka sink or digest posting is disabled.
func NewStationPipeline(src LocationSource, pub StationPublisher, poster Poster, opts StationOptions, logger *slog.Logger, metrics *observability.Metrics) *StationPipeline {
	return &StationPipeline{
		source:    src,
		publisher: pub,
		poster:    poster,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run fetches the city list, publishes it when a sink is configured, reads
// each city's observations for date and returns the ranked digest. The first
// failing stage aborts the run.
func (p *StationPipeline) Run(ctx context.Context, date time.Time) (digest domain.Digest, err error) {
	start := time.Now()
	defer func() { recordOutcome(p.metrics, err) }()
	p.logger.Info("station pipeline started", "date", domain.FormatDate(date), "category", p.opts.Category)

	all, err := p.source.Locations(ctx, p.opts.Category, p.opts.PageSize)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("list locations: %w", err)
	}
	cities := domain.Limit(domain.FilterByPrefix(all, p.opts.Prefix), p.opts.MaxCities)
	p.logger.Info("locations filtered", "fetched", len(all), "prefix", p.opts.Prefix, "kept", len(cities))

	if p.publisher != nil {
		if err := p.publisher.PublishStations(ctx, cities); err != nil {
			return domain.Digest{}, err
		}
	}

	readings := make([]domain.CityReading, 0, len(cities))
	for _, city := range cities {
		q := domain.NewDailyQuery(p.opts.Dataset, city.ID, date, domain.DataTypeTMAX)
		obs, err := p.source.Observations(ctx, q, p.opts.PageSize)
		if err != nil {
			return domain.Digest{}, fmt.Errorf("observations for %s: %w", city.ID, err)
		}
		reading, ok := cityReading(city, obs)
		if !ok {
			p.logger.Debug("no daily maximum reported", "location", city.ID)
			continue
		}
		readings = append(readings, reading)
	}

	digest = domain.BuildDigest(date, readings, p.opts.DigestSize)
	p.logger.Info("digest built",
		"cities", len(cities),
		"reporting", len(readings),
		"duration", time.Since(start),
	)

	if err := p.postDigest(ctx, digest); err != nil {
		return digest, err
	}
	return digest, nil
}

func (p *StationPipeline) postDigest(ctx context.Context, digest domain.Digest) error {
	switch {
	case !p.opts.PostDigest || p.poster == nil:
		return nil
	case digest.Empty():
		p.logger.Warn("digest is empty, nothing to post", "date", domain.FormatDate(digest.Date))
		return nil
	case p.opts.DryRun:
		p.logger.Info("dry run, digest not posted", "text", digest.Text())
		return nil
	}
	if err := p.poster.Post(ctx, domain.Post{Text: digest.Text()}); err != nil {
		return fmt.Errorf("post digest: %w", err)
	}
	return nil
}

// recordOutcome sets the run_success gauge for a finished run.
func recordOutcome(m *observability.Metrics, err error) {
	if err != nil {
		m.RunSuccess.Set(0)
		return
	}
	m.RunSuccess.Set(1)
}
