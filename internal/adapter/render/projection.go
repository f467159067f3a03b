package render

import (
	"math"

	"github.com/wroge/wgs84"
)

// Extent is a geographic bounding box in degrees.
type Extent struct {
	West, East, South, North float64
}

// ContinentalUS is the map window for the anomaly map.
var ContinentalUS = Extent{West: -120, East: -70, South: 25, North: 50}

// Contains reports whether lon/lat lies inside the extent, widened by pad degrees.
func (e Extent) Contains(lon, lat, pad float64) bool {
	return lon >= e.West-pad && lon <= e.East+pad && lat >= e.South-pad && lat <= e.North+pad
}

// Lambert is a Lambert conformal conic projection on the NAD83 (GRS80)
// ellipsoid.
type Lambert struct {
	crs wgs84.ProjectedReferenceSystem
}

// NewLambert builds a projection with the given central meridian, latitude of
// origin and two standard parallels, all in degrees. False easting and
// northing are zero.
func NewLambert(lon0, lat0, lat1, lat2 float64) Lambert {
	return Lambert{crs: wgs84.NAD83().LambertConformalConic2SP(lon0, lat0, lat1, lat2, 0, 0)}
}

// USLambert matches the conventional CONUS setup: central meridian -96,
// origin 39N, standard parallels 33N and 45N.
func USLambert() Lambert {
	return NewLambert(-96, 39, 33, 45)
}

// Forward projects lon/lat degrees to easting and northing in metres. The
// datum's area of use is not applied; callers clip to their own extent.
func (p Lambert) Forward(lon, lat float64) (x, y float64) {
	return p.crs.Projection.FromLonLat(NormalizeLon(lon), lat, p.crs.Datum)
}

// NormalizeLon maps a longitude in [0, 360) to [-180, 180).
func NormalizeLon(lon float64) float64 {
	if lon >= 180 {
		return lon - 360
	}
	if lon < -180 {
		return lon + 360
	}
	return lon
}

// Rect is a pixel rectangle; Y grows downwards.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Viewport maps projected coordinates of an extent into a pixel rectangle,
// preserving aspect ratio.
type Viewport struct {
	proj                   Lambert
	minX, maxX, minY, maxY float64
	scale                  float64
	Frame                  Rect
}

// NewViewport fits the projected outline of extent into the largest rectangle
// of the same aspect ratio centred in area.
func NewViewport(proj Lambert, extent Extent, area Rect) Viewport {
	v := Viewport{
		proj: proj,
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}

	// The projected outline bulges, so sample every edge rather than the corners.
	const steps = 100
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		lon := extent.West + t*(extent.East-extent.West)
		lat := extent.South + t*(extent.North-extent.South)
		v.include(proj.Forward(lon, extent.South))
		v.include(proj.Forward(lon, extent.North))
		v.include(proj.Forward(extent.West, lat))
		v.include(proj.Forward(extent.East, lat))
	}

	w, h := v.maxX-v.minX, v.maxY-v.minY
	v.scale = math.Min(float64(area.Width())/w, float64(area.Height())/h)
	fw, fh := int(math.Round(w*v.scale)), int(math.Round(h*v.scale))
	left := area.Left + (area.Width()-fw)/2
	top := area.Top + (area.Height()-fh)/2
	v.Frame = Rect{Left: left, Top: top, Right: left + fw, Bottom: top + fh}
	return v
}

func (v *Viewport) include(x, y float64) {
	v.minX = math.Min(v.minX, x)
	v.maxX = math.Max(v.maxX, x)
	v.minY = math.Min(v.minY, y)
	v.maxY = math.Max(v.maxY, y)
}

// Pixel returns the pixel position of lon/lat. Points outside the extent map
// outside Frame.
func (v Viewport) Pixel(lon, lat float64) (int, int) {
	x, y := v.proj.Forward(lon, lat)
	px := float64(v.Frame.Left) + (x-v.minX)*v.scale
	py := float64(v.Frame.Top) + (v.maxY-y)*v.scale
	return int(math.Round(px)), int(math.Round(py))
}

// Visible reports whether lon/lat lands inside Frame.
func (v Viewport) Visible(lon, lat float64) bool {
	x, y := v.Pixel(lon, lat)
	f := v.Frame
	return x >= f.Left && x <= f.Right && y >= f.Top && y <= f.Bottom
}

// CellVisible reports whether a grid cell centred on lon/lat with half-sizes
// dlon and dlat shows inside Frame, judged by its centre and corners.
func (v Viewport) CellVisible(lon, lat, dlon, dlat float64) bool {
	for _, d := range [5][2]float64{{0, 0}, {-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		if v.Visible(lon+d[0]*dlon, lat+d[1]*dlat) {
			return true
		}
	}
	return false
}
