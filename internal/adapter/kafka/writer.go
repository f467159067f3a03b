package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// Header keys set on every station message.
const (
	HeaderLocationCategory = "location_category"
	HeaderFetchedAt        = "fetched_at"
)

// messageWriter is the subset of *kafkago.Writer used by StationWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// StationWriter publishes fetched CDO location records to a Kafka topic.
type StationWriter struct {
	writer   messageWriter
	category string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewStationWriter creates a Kafka producer for the configured stations topic.
func NewStationWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *StationWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaStationsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &StationWriter{writer: w, category: cfg.CDOLocationCategory, metrics: metrics, logger: logger}
}

// PublishStations writes all stations in a single WriteMessages call. Keys are
// station IDs so repeated runs land on the same partition per station.
func (w *StationWriter) PublishStations(ctx context.Context, stations []domain.Station) error {
	if len(stations) == 0 {
		return nil
	}
	fetchedAt := domain.Now().UTC()
	msgs := make([]kafkago.Message, len(stations))
	for i := range stations {
		msg, err := serializeToMessage(stations[i], w.category, fetchedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish stations: %w", err)
	}
	w.metrics.StationsPublished.Add(float64(len(msgs)))
	w.logger.Info("stations published", "count", len(msgs))
	return nil
}

func (w *StationWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Station into a Kafka message.
func serializeToMessage(s domain.Station, category string, fetchedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station %s: %w", s.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(s.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderLocationCategory, Value: []byte(category)},
			{Key: HeaderFetchedAt, Value: []byte(fetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
