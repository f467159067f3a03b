package observability

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinhicks7/noaa-api/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNewLogger_Formats(t *testing.T) {
	jsonLogger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	assert.True(t, jsonLogger.Enabled(context.Background(), slog.LevelDebug))

	textLogger := NewLogger(&config.Config{LogLevel: "error", LogFormat: "text"})
	assert.False(t, textLogger.Enabled(context.Background(), slog.LevelWarn))
}

func TestMetrics_Push(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetricsForTesting()
	m.RunSuccess.Set(1)
	m.CDORequests.WithLabelValues("locations", "success").Add(2)

	require.NoError(t, m.Push(context.Background(), srv.URL, "noaa_anomaly", srv.Client()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/noaa_anomaly", path)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CDORequests.WithLabelValues("locations", "success")))
}

func TestMetrics_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetricsForTesting().Push(context.Background(), srv.URL, "noaa_stations", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}

func TestNewMetrics_RegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RunSuccess.Set(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "noaa_bot_run_success")
	assert.Contains(t, names, "noaa_bot_render_duration_seconds")

	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration")
}

func TestMetrics_PushOnExit(t *testing.T) {
	var pushes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/job/noaa_anomaly", r.URL.Path)
		pushes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	m := NewMetricsForTesting()

	m.PushOnExit("", "noaa_anomaly", logger)
	assert.Zero(t, pushes.Load())

	m.PushOnExit(srv.URL, "noaa_anomaly", logger)
	assert.Equal(t, int32(1), pushes.Load())
	assert.Empty(t, logs.String())
}

func TestMetrics_PushOnExitLogsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	NewMetricsForTesting().PushOnExit(srv.URL, "noaa_stations", slog.New(slog.NewTextHandler(&logs, nil)))

	assert.Contains(t, logs.String(), "metrics push failed")
	assert.Contains(t, logs.String(), "job=noaa_stations")
}
