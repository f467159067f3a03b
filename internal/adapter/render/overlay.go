package render

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Layer is a set of boundary paths drawn over the data cells.
type Layer struct {
	Name   string
	Paths  []orb.LineString
	Fill   bool // fill closed paths instead of stroking
	Color  drawing.Color
	Stroke float64 // line width in points
}

var (
	oceanBlue    = drawing.Color{R: 0xad, G: 0xd8, B: 0xe6, A: 0xff}
	boundaryGray = drawing.Color{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// LoadLayer reads a GeoJSON FeatureCollection and keeps the paths whose
// bounds intersect extent. An empty path yields an empty layer.
func LoadLayer(name, path string, extent Extent) (Layer, error) {
	layer := Layer{Name: name}
	if path == "" {
		return layer, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, fmt.Errorf("read %s overlay: %w", name, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return Layer{}, fmt.Errorf("decode %s overlay %s: %w", name, path, err)
	}

	window := orb.Bound{
		Min: orb.Point{extent.West, extent.South},
		Max: orb.Point{extent.East, extent.North},
	}
	for _, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.Bound().Intersects(window) {
			continue
		}
		layer.Paths = append(layer.Paths, paths(f.Geometry)...)
	}
	return layer, nil
}

// paths flattens a geometry into drawable line strings. Polygon rings are
// returned closed; points are dropped.
func paths(g orb.Geometry) []orb.LineString {
	switch g := g.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		out := make([]orb.LineString, 0, len(g))
		for _, ls := range g {
			out = append(out, ls)
		}
		return out
	case orb.Ring:
		return []orb.LineString{orb.LineString(g)}
	case orb.Polygon:
		out := make([]orb.LineString, 0, len(g))
		for _, r := range g {
			out = append(out, orb.LineString(r))
		}
		return out
	case orb.MultiPolygon:
		var out []orb.LineString
		for _, p := range g {
			out = append(out, paths(p)...)
		}
		return out
	case orb.Collection:
		var out []orb.LineString
		for _, c := range g {
			out = append(out, paths(c)...)
		}
		return out
	default:
		return nil
	}
}
