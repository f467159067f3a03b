package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "noaa_bot"

// Metrics holds the Prometheus collectors for one pipeline run.
type Metrics struct {
	// CDO API metrics.
	CDORequests        *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	CDORequestDuration *prometheus.HistogramVec // labels: endpoint
	CDORecordsFetched  *prometheus.CounterVec   // labels: endpoint

	// Anomaly map metrics.
	DatasetLoadDuration *prometheus.HistogramVec // labels: dataset={daily,climatology}
	RenderDuration      prometheus.Histogram

	Posts             *prometheus.CounterVec // labels: kind={text,image}, outcome={success,error}
	StationsPublished prometheus.Counter
	RunSuccess        prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		CDORequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cdo_requests_total",
			Help:      "CDO API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		CDORequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cdo_request_duration_seconds",
			Help:      "CDO API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		CDORecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cdo_records_fetched_total",
			Help:      "Records accumulated from paged CDO listings.",
		}, []string{"endpoint"}),
		DatasetLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time to read one gridded slice over OPeNDAP.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"dataset"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to render and write the anomaly map.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30},
		}),
		Posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Social posts attempted by kind and outcome.",
		}, []string{"kind", "outcome"}),
		StationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_published_total",
			Help:      "Station records written to the Kafka sink.",
		}),
		RunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 when the last run completed without error, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all run metrics with reg. Commands pass a
// fresh registry per run; pass prometheus.DefaultRegisterer to expose them
// through the global gatherer instead.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CDORequests,
		m.CDORequestDuration,
		m.CDORecordsFetched,
		m.DatasetLoadDuration,
		m.RenderDuration,
		m.Posts,
		m.StationsPublished,
		m.RunSuccess,
	}
}

// Push sends the run metrics to a Prometheus Pushgateway under the given job
// name, replacing any previous push for that job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string, client *http.Client) error {
	p := push.New(gatewayURL, job)
	if client != nil {
		p = p.Client(client)
	}
	for _, c := range m.collectors() {
		p = p.Collector(c)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// pushTimeout bounds the best-effort push at the end of a run.
const pushTimeout = 10 * time.Second

// PushOnExit pushes the run metrics when gatewayURL is set. Failures are
// logged and never fail the run.
func (m *Metrics) PushOnExit(gatewayURL, job string, logger *slog.Logger) {
	if gatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := m.Push(ctx, gatewayURL, job, &http.Client{}); err != nil {
		logger.Warn("metrics push failed", "job", job, "error", err)
	}
}
