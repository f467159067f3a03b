package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// AltText describes the anomaly map for screen readers.
const AltText = "Temperature map of U.S."

// GridLoader reads the observed and climatological grids for a date.
type GridLoader interface {
	Load(ctx context.Context, date time.Time) (daily, climatology domain.Grid, err error)
}

// MapRenderer draws an anomaly grid and returns the encoded image.
type MapRenderer interface {
	Render(ctx context.Context, anomaly domain.Grid, date time.Time) ([]byte, error)
}

// AnomalyOptions configures an AnomalyPipeline run.
type AnomalyOptions struct {
	DryRun      bool
	AspectRatio *domain.AspectRatio
}

// AnomalyPipeline loads, differences, renders and posts the daily maximum
// temperature anomaly map.
type AnomalyPipeline struct {
	loader   GridLoader
	renderer MapRenderer
	poster   Poster
	opts     AnomalyOptions
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAnomalyPipeline wires the anomaly stages.
func NewAnomalyPipeline(l GridLoader, r MapRenderer, poster Poster, opts AnomalyOptions, logger *slog.Logger, metrics *observability.Metrics) *AnomalyPipeline {
	return &AnomalyPipeline{
		loader:   l,
		renderer: r,
		poster:   poster,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Caption is the post text for date.
func Caption(date time.Time) string {
	return fmt.Sprintf("U.S. Temperature Anomaly for %s.", domain.FormatDate(date))
}

// Run executes load, compute, render and post for date. Nothing is posted
// unless every earlier stage succeeded.
func (p *AnomalyPipeline) Run(ctx context.Context, date time.Time) (err error) {
	start := time.Now()
	defer func() { recordOutcome(p.metrics, err) }()
	p.logger.Info("anomaly pipeline started", "date", domain.FormatDate(date))

	daily, climatology, err := p.loader.Load(ctx, date)
	if err != nil {
		return fmt.Errorf("load grids: %w", err)
	}

	anomaly, err := domain.ComputeAnomaly(daily, climatology)
	if err != nil {
		return err
	}
	if lo, hi, ok := anomaly.Range(); ok {
		p.logger.Info("anomaly computed", "min", lo, "max", hi)
	} else {
		p.logger.Warn("anomaly grid has no data")
	}

	image, err := p.renderer.Render(ctx, anomaly, date)
	if err != nil {
		return fmt.Errorf("render map: %w", err)
	}

	post := domain.Post{
		Text:        Caption(date),
		Image:       image,
		ImageAlt:    AltText,
		AspectRatio: p.opts.AspectRatio,
	}
	if p.opts.DryRun {
		p.logger.Info("dry run, map not posted", "caption", post.Text, "bytes", len(image))
		return nil
	}
	if err := p.poster.Post(ctx, post); err != nil {
		return fmt.Errorf("post map: %w", err)
	}

	p.logger.Info("anomaly pipeline finished", "duration", time.Since(start))
	return nil
}
