package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/kevinhicks7/noaa-api/internal/domain"
)

// FixedBounds are the anomaly class edges in °C used by the fixed scale.
var FixedBounds = []float64{-24, -18, -12, -6, -3, -1, 0, 1, 3, 6, 12, 18, 24}

// Scale modes.
const (
	ScaleFixed = "fixed"
	ScaleData  = "data"
)

// Diverging blue-white-red anchors, cold to warm.
var rdBuR = []drawing.Color{
	{R: 0x05, G: 0x30, B: 0x61, A: 0xff},
	{R: 0x21, G: 0x66, B: 0xac, A: 0xff},
	{R: 0x43, G: 0x93, B: 0xc3, A: 0xff},
	{R: 0x92, G: 0xc5, B: 0xde, A: 0xff},
	{R: 0xd1, G: 0xe5, B: 0xf0, A: 0xff},
	{R: 0xf7, G: 0xf7, B: 0xf7, A: 0xff},
	{R: 0xfd, G: 0xdb, B: 0xc7, A: 0xff},
	{R: 0xf4, G: 0xa5, B: 0x82, A: 0xff},
	{R: 0xd6, G: 0x60, B: 0x4d, A: 0xff},
	{R: 0xb2, G: 0x18, B: 0x2b, A: 0xff},
	{R: 0x67, G: 0x00, B: 0x1f, A: 0xff},
}

// Palette assigns one colour per class. Values below the first bound and at or
// above the last bound get the two extension colours.
type Palette struct {
	Bounds []float64
	Colors []drawing.Color
}

// NewPalette samples len(bounds)+1 evenly spaced colours from the diverging ramp.
func NewPalette(bounds []float64) (Palette, error) {
	if len(bounds) < 2 {
		return Palette{}, fmt.Errorf("palette needs at least 2 bounds, got %d", len(bounds))
	}
	if !sort.Float64sAreSorted(bounds) {
		return Palette{}, fmt.Errorf("palette bounds must be ascending: %v", bounds)
	}

	n := len(bounds) + 1
	colors := make([]drawing.Color, n)
	for i := range colors {
		colors[i] = ramp(float64(i) / float64(n-1))
	}
	return Palette{Bounds: append([]float64(nil), bounds...), Colors: colors}, nil
}

// ColorFor returns the class colour for v. Class i covers [Bounds[i-1], Bounds[i]).
func (p Palette) ColorFor(v float64) drawing.Color {
	return p.Colors[p.Class(v)]
}

// Class returns the index into Colors for v.
func (p Palette) Class(v float64) int {
	return sort.Search(len(p.Bounds), func(i int) bool { return p.Bounds[i] > v })
}

// DataBounds returns thirteen edges symmetric about zero that span the largest
// absolute anomaly among the cells drawn inside the viewport frame. It falls
// back to FixedBounds when no visible cell holds data.
func DataBounds(g domain.Grid, extent Extent, vp Viewport) []float64 {
	dlat, dlon := spacing(g.Lats)/2, spacing(g.Lons)/2
	var vmax float64
	for i, lat := range g.Lats {
		for j, rawLon := range g.Lons {
			v := g.At(i, j)
			if math.IsNaN(v) || !drawable(extent, vp, NormalizeLon(rawLon), lat, dlon, dlat) {
				continue
			}
			vmax = math.Max(vmax, math.Abs(v))
		}
	}
	if vmax == 0 {
		return append([]float64(nil), FixedBounds...)
	}

	top := math.Ceil(vmax)
	bounds := make([]float64, 13)
	for i := range bounds {
		bounds[i] = top * float64(i-6) / 6
	}
	return bounds
}

func ramp(t float64) drawing.Color {
	pos := t * float64(len(rdBuR)-1)
	i := int(math.Floor(pos))
	if i >= len(rdBuR)-1 {
		return rdBuR[len(rdBuR)-1]
	}
	frac := pos - float64(i)
	a, b := rdBuR[i], rdBuR[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + frac*(float64(y)-float64(x))))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
