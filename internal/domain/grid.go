package domain

import (
	"fmt"
	"math"
)

// Grid is a 2-D field on a regular latitude/longitude mesh for a single day.
// Values are row-major: Values[i*len(Lons)+j] is at (Lats[i], Lons[j]).
// Missing cells hold NaN.
type Grid struct {
	Lats   []float64
	Lons   []float64
	Values []float64
}

// NewGrid validates that values covers the lat/lon mesh exactly.
func NewGrid(lats, lons, values []float64) (Grid, error) {
	if len(values) != len(lats)*len(lons) {
		return Grid{}, fmt.Errorf("grid has %d values for %dx%d mesh", len(values), len(lats), len(lons))
	}
	return Grid{Lats: lats, Lons: lons, Values: values}, nil
}

// Shape returns the number of latitude rows and longitude columns.
func (g Grid) Shape() (rows, cols int) {
	return len(g.Lats), len(g.Lons)
}

// At returns the value at row i, column j.
func (g Grid) At(i, j int) float64 {
	return g.Values[i*len(g.Lons)+j]
}

// Range returns the minimum and maximum non-NaN values. ok is false when every
// cell is missing.
func (g Grid) Range() (minV, maxV float64, ok bool) {
	minV, maxV = math.Inf(1), math.Inf(-1)
	for _, v := range g.Values {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	return minV, maxV, ok
}

// ComputeAnomaly returns daily - climatology element-wise. Both grids must
// have identical shapes; coordinates are taken from daily.
func ComputeAnomaly(daily, climatology Grid) (Grid, error) {
	dr, dc := daily.Shape()
	cr, cc := climatology.Shape()
	if dr != cr || dc != cc || len(daily.Values) != len(climatology.Values) {
		return Grid{}, fmt.Errorf("%w: daily %dx%d, climatology %dx%d", ErrShapeMismatch, dr, dc, cr, cc)
	}

	out := make([]float64, len(daily.Values))
	for i := range daily.Values {
		out[i] = daily.Values[i] - climatology.Values[i]
	}
	return Grid{Lats: daily.Lats, Lons: daily.Lons, Values: out}, nil
}
