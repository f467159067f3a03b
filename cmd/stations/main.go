// Command stations lists U.S. cities from NOAA Climate Data Online, ranks
// them by daily maximum temperature and optionally posts the digest to
// Bluesky and publishes the city records to Kafka.
//
// Usage:
//
//	go run ./cmd/stations [-date 2025-05-08]
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
	"github.com/kevinhicks7/noaa-api/internal/adapter/cdo"
	kafkaadapter "github.com/kevinhicks7/noaa-api/internal/adapter/kafka"
	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
	"github.com/kevinhicks7/noaa-api/internal/pipeline"
)

const metricsJob = "noaa_stations"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("stations run failed", "error", err)
		os.Exit(1)
	}
}

func run(parent context.Context, args []string) error {
	fs := flag.NewFlagSet("stations", flag.ContinueOnError)
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

	// A digest that could never be posted should not cost a full CDO crawl.
	if cfg.StationDigestPost && !cfg.DryRun && cfg.BskyPassword == "" {
		return &domain.MissingCredentialError{Name: bluesky.PasswordVar}
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	// Optional sinks stay nil interfaces when disabled.
	var publisher pipeline.StationPublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewStationWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka station sink enabled", "topic", cfg.KafkaStationsTopic, "brokers", cfg.KafkaBrokers)
	}
	var poster pipeline.Poster
	if cfg.StationDigestPost {
		poster = bluesky.NewPoster(cfg, metrics, logger)
	}

	p := pipeline.NewStationPipeline(
		cdo.NewClient(cfg, metrics, logger),
		publisher,
		poster,
		pipeline.StationOptions{
			Category:   cfg.CDOLocationCategory,
			Prefix:     cfg.CDOCountryPrefix,
			Dataset:    cfg.CDODataset,
			PageSize:   cfg.CDOPageSize,
			MaxCities:  cfg.CDOMaxCities,
			DigestSize: cfg.StationDigestSize,
			PostDigest: cfg.StationDigestPost,
			DryRun:     cfg.DryRun,
		},
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	digest, runErr := p.Run(ctx, date)
	if runErr == nil {
		logger.Info("station digest", "text", digest.Text())
	}
	metrics.PushOnExit(cfg.PushgatewayURL, metricsJob, logger)
	return runErr
}
