// Command anomaly renders yesterday's U.S. maximum temperature anomaly map
// from CPC gridded data and posts it to Bluesky.
//
// Usage:
//
//	go run ./cmd/anomaly [-date 2025-05-08]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kevinhicks7/noaa-api/internal/adapter/bluesky"
	"github.com/kevinhicks7/noaa-api/internal/adapter/opendap"
	"github.com/kevinhicks7/noaa-api/internal/adapter/render"
	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
	"github.com/kevinhicks7/noaa-api/internal/pipeline"
)

const metricsJob = "noaa_anomaly"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("anomaly run failed", "error", err)
		os.Exit(1)
	}
}

func run(parent context.Context, args []string) error {
	fs := flag.NewFlagSet("anomaly", flag.ContinueOnError)
	dateFlag := fs.String("date", "", "target date as YYYY-MM-DD (default: TARGET_DATE, then yesterday)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)

	date, err := domain.TargetDate(*dateFlag, cfg.TargetDate)
	if err != nil {
		return err
	}

	// Fail before downloading anything when the post could never be sent.
	if !cfg.DryRun && cfg.BskyPassword == "" {
		return &domain.MissingCredentialError{Name: bluesky.PasswordVar}
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	renderer, err := render.NewRenderer(cfg, metrics, logger)
	if err != nil {
		return err
	}

	p := pipeline.NewAnomalyPipeline(
		opendap.NewLoader(cfg, metrics, logger),
		renderer,
		bluesky.NewPoster(cfg, metrics, logger),
		pipeline.AnomalyOptions{
			DryRun:      cfg.DryRun,
			AspectRatio: &domain.AspectRatio{Width: cfg.MapWidth, Height: cfg.MapHeight},
		},
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := p.Run(ctx, date)
	metrics.PushOnExit(cfg.PushgatewayURL, metricsJob, logger)
	return runErr
}
