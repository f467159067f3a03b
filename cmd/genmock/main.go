// Command genmock builds a synthetic CPC-style anomaly grid for the
// continental U.S., writes it as a JSON fixture and renders a preview map
// with the production renderer. It needs no network access, which makes it
// the quickest way to review map styling and overlay files.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -json-out testdata/anomaly_grid.json \
//	  -png-out preview.png \
//	  -amplitude 14
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kevinhicks7/noaa-api/internal/adapter/render"
	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// CPC grids are 0.5° with cell centres on the quarter degree.
const resolution = 0.5

var baseDate = time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)

// fixture is the on-disk form of a grid.
type fixture struct {
	Date   string     `json:"date"`
	Lats   []float64  `json:"lats"`
	Lons   []float64  `json:"lons"`
	Values []*float64 `json:"values"` // null marks a missing cell
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	jsonOut := flag.String("json-out", "", "output path for the grid JSON fixture")
	pngOut := flag.String("png-out", "", "output path for the preview PNG")
	amplitude := flag.Float64("amplitude", 14, "peak absolute anomaly in °C")
	flag.Parse()

	if *jsonOut == "" && *pngOut == "" {
		flag.Usage()
		return fmt.Errorf("at least one of -json-out or -png-out is required")
	}

	grid := synthesize(*amplitude)

	if *jsonOut != "" {
		if err := writeFixture(*jsonOut, grid, baseDate); err != nil {
			return err
		}
		fmt.Printf("wrote %d cells to %s\n", len(grid.Values), *jsonOut)
	}

	if *pngOut != "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.MapOutput = *pngOut
		logger := observability.NewLogger(cfg)

		r, err := render.NewRenderer(cfg, observability.NewMetrics(prometheus.NewRegistry()), logger)
		if err != nil {
			return err
		}
		data, err := r.Render(context.Background(), grid, baseDate)
		if err != nil {
			return err
		}
		slog.Info("preview rendered", "path", *pngOut, "bytes", len(data))
	}
	return nil
}

// synthesize returns a cold-west, warm-east dipole over the map window in
// CPC's conventions: latitude descending, longitude 0-360. Cells south of
// 24N are missing, like ocean in the real product.
func synthesize(amplitude float64) domain.Grid {
	var lats, lons []float64
	for lat := 54.75; lat >= 20.25; lat -= resolution {
		lats = append(lats, lat)
	}
	for lon := 230.25; lon <= 299.75; lon += resolution {
		lons = append(lons, lon)
	}

	values := make([]float64, 0, len(lats)*len(lons))
	for _, lat := range lats {
		for _, lon := range lons {
			if lat < 24 {
				values = append(values, math.NaN())
				continue
			}
			x := (render.NormalizeLon(lon) + 95) / 25 // -1 at 120W, +1 at 70W
			y := (lat - 37.5) / 12.5
			values = append(values, amplitude*math.Sin(math.Pi*x/2)*math.Cos(math.Pi*y/2))
		}
	}
	return domain.Grid{Lats: lats, Lons: lons, Values: values}
}

func writeFixture(path string, g domain.Grid, date time.Time) error {
	f := fixture{Date: domain.FormatDate(date), Lats: g.Lats, Lons: g.Lons, Values: make([]*float64, len(g.Values))}
	for i, v := range g.Values {
		if math.IsNaN(v) {
			continue
		}
		rounded := math.Round(v*100) / 100
		f.Values[i] = &rounded
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}
