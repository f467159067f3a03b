package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/pipeline"
)

type mockLoader struct {
	daily, climatology domain.Grid
	err                error
	dates              []time.Time
}

func (m *mockLoader) Load(_ context.Context, date time.Time) (domain.Grid, domain.Grid, error) {
	m.dates = append(m.dates, date)
	if m.err != nil {
		return domain.Grid{}, domain.Grid{}, m.err
	}
	return m.daily, m.climatology, nil
}

type mockRenderer struct {
	image    []byte
	err      error
	rendered []domain.Grid
}

func (m *mockRenderer) Render(_ context.Context, anomaly domain.Grid, _ time.Time) ([]byte, error) {
	m.rendered = append(m.rendered, anomaly)
	if m.err != nil {
		return nil, m.err
	}
	return m.image, nil
}

func uniform(t *testing.T, v float64) domain.Grid {
	t.Helper()
	g, err := domain.NewGrid([]float64{40.25, 39.75}, []float64{260.25, 260.75}, []float64{v, v, v, v})
	require.NoError(t, err)
	return g
}

func TestAnomalyPipeline_Run_HappyPath(t *testing.T) {
	loader := &mockLoader{daily: uniform(t, 20), climatology: uniform(t, 15)}
	renderer := &mockRenderer{image: []byte("png-bytes")}
	poster := &mockPoster{}
	metrics := newTestMetrics()
	aspect := &domain.AspectRatio{Width: 2930, Height: 1748}

	p := pipeline.NewAnomalyPipeline(loader, renderer, poster, pipeline.AnomalyOptions{AspectRatio: aspect}, discardLogger(), metrics)
	require.NoError(t, p.Run(context.Background(), may8))

	assert.Equal(t, []time.Time{may8}, loader.dates)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, []float64{5, 5, 5, 5}, renderer.rendered[0].Values)

	require.Len(t, poster.posts, 1)
	assert.Equal(t, domain.Post{
		Text:        "U.S. Temperature Anomaly for 2025-05-08.",
		Image:       []byte("png-bytes"),
		ImageAlt:    "Temperature map of U.S.",
		AspectRatio: aspect,
	}, poster.posts[0])
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunSuccess), 0)
}

func TestAnomalyPipeline_Run_DryRunRendersWithoutPosting(t *testing.T) {
	renderer := &mockRenderer{image: []byte("png")}
	poster := &mockPoster{}
	loader := &mockLoader{daily: uniform(t, 1), climatology: uniform(t, 2)}

	p := pipeline.NewAnomalyPipeline(loader, renderer, poster, pipeline.AnomalyOptions{DryRun: true}, discardLogger(), newTestMetrics())
	require.NoError(t, p.Run(context.Background(), may8))

	assert.Len(t, renderer.rendered, 1)
	assert.Empty(t, poster.posts)
}

func TestAnomalyPipeline_Run_ShapeMismatch(t *testing.T) {
	clim, err := domain.NewGrid([]float64{40}, []float64{260}, []float64{15})
	require.NoError(t, err)
	renderer := &mockRenderer{}

	p := pipeline.NewAnomalyPipeline(&mockLoader{daily: uniform(t, 20), climatology: clim}, renderer, &mockPoster{}, pipeline.AnomalyOptions{}, discardLogger(), newTestMetrics())
	err = p.Run(context.Background(), may8)

	require.ErrorIs(t, err, domain.ErrShapeMismatch)
	assert.Empty(t, renderer.rendered)
}

func TestAnomalyPipeline_Run_StageErrorsStopBeforePosting(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name     string
		loader   *mockLoader
		renderer *mockRenderer
		poster   *mockPoster
		wantErr  string
	}{
		{"load", &mockLoader{err: errBoom}, &mockRenderer{}, &mockPoster{}, "load grids: boom"},
		{"render", &mockLoader{}, &mockRenderer{err: errBoom}, &mockPoster{}, "render map: boom"},
		{"post", &mockLoader{}, &mockRenderer{image: []byte("png")}, &mockPoster{err: errBoom}, "post map: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.loader.err == nil {
				tt.loader.daily, tt.loader.climatology = uniform(t, 20), uniform(t, 15)
			}
			metrics := newTestMetrics()
			metrics.RunSuccess.Set(1)

			p := pipeline.NewAnomalyPipeline(tt.loader, tt.renderer, tt.poster, pipeline.AnomalyOptions{}, discardLogger(), metrics)
			err := p.Run(context.Background(), may8)

			require.ErrorIs(t, err, errBoom)
			assert.EqualError(t, err, tt.wantErr)
			assert.Empty(t, tt.poster.posts)
			assert.InDelta(t, 0, testutil.ToFloat64(metrics.RunSuccess), 0)
		})
	}
}

func TestAnomalyPipeline_Run_MissingPasswordAfterRender(t *testing.T) {
	renderer := &mockRenderer{image: []byte("png")}
	poster := &mockPoster{err: &domain.MissingCredentialError{Name: "BSKY_CLIMATE_BOT_PW"}}

	p := pipeline.NewAnomalyPipeline(&mockLoader{daily: uniform(t, 20), climatology: uniform(t, 15)}, renderer, poster, pipeline.AnomalyOptions{}, discardLogger(), newTestMetrics())
	err := p.Run(context.Background(), may8)

	require.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Len(t, renderer.rendered, 1)
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "U.S. Temperature Anomaly for 2024-12-31.", pipeline.Caption(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Temperature map of U.S.", pipeline.AltText)
}
