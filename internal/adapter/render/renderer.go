package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// ColorbarLabel is printed along the colour bar.
const ColorbarLabel = "Max Temperature Anomaly (°C)"

// Points more than this many degrees outside the extent are never projected.
// The frame corners bulge past the extent by less than this.
const cellPad = 12

var (
	white      = drawing.Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black      = drawing.Color{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	markerGray = drawing.Color{R: 0x80, G: 0x80, B: 0x80, A: 0xb3}
	labelHalo  = drawing.Color{R: 0xff, G: 0xff, B: 0xff, A: 0xcc}
	labelInk   = drawing.Color{R: 0x00, G: 0x00, B: 0x00, A: 0xe6}
)

// Options controls the rendered map.
type Options struct {
	Width, Height int
	DPI           float64
	Scale         string // ScaleFixed or ScaleData
	CityMarkers   bool
	CityLabels    bool
	Output        string
	Handle        string // credited in the footer
}

// Renderer draws the anomaly map as a PNG.
type Renderer struct {
	opts    Options
	extent  Extent
	proj    Lambert
	cities  []City
	layers  []Layer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRenderer loads the city list and overlay files named in cfg.
func NewRenderer(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Renderer, error) {
	cities, err := LoadCities(cfg.MapCitiesFile)
	if err != nil {
		return nil, err
	}

	specs := []struct {
		name, path string
		fill       bool
		width      float64
	}{
		{"lakes", cfg.MapLakesGeoJSON, true, 0},
		{"coastlines", cfg.MapCoastGeoJSON, false, 0.5},
		{"borders", cfg.MapBorderGeoJSON, false, 1.5},
		{"states", cfg.MapStatesGeoJSON, false, 0.5},
	}
	var layers []Layer
	for _, s := range specs {
		layer, err := LoadLayer(s.name, s.path, ContinentalUS)
		if err != nil {
			return nil, err
		}
		if len(layer.Paths) == 0 {
			continue
		}
		layer.Fill = s.fill
		layer.Stroke = s.width
		layer.Color = boundaryGray
		if s.fill {
			layer.Color = oceanBlue
		}
		logger.Debug("map overlay loaded", "layer", s.name, "paths", len(layer.Paths))
		layers = append(layers, layer)
	}

	opts := Options{
		Width:       cfg.MapWidth,
		Height:      cfg.MapHeight,
		DPI:         cfg.MapDPI,
		Scale:       cfg.MapScale,
		CityMarkers: cfg.MapCityMarkers,
		CityLabels:  cfg.MapCityLabels,
		Output:      cfg.MapOutput,
		Handle:      cfg.BskyHandle,
	}
	return New(opts, cities, layers, metrics, logger), nil
}

// New creates a Renderer from explicit options.
func New(opts Options, cities []City, layers []Layer, metrics *observability.Metrics, logger *slog.Logger) *Renderer {
	return &Renderer{
		opts:    opts,
		extent:  ContinentalUS,
		proj:    USLambert(),
		cities:  cities,
		layers:  layers,
		metrics: metrics,
		logger:  logger,
	}
}

// Render draws the anomaly for date, writes it to the output file and returns
// the bytes read back from that file.
func (r *Renderer) Render(ctx context.Context, anomaly domain.Grid, date time.Time) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	c, err := r.newCanvas()
	if err != nil {
		return nil, err
	}

	bounds := FixedBounds
	if r.opts.Scale == ScaleData {
		bounds = DataBounds(anomaly, r.extent, c.vp)
	}
	palette, err := NewPalette(bounds)
	if err != nil {
		return nil, err
	}
	c.draw(anomaly, palette, date)

	f, err := os.Create(r.opts.Output)
	if err != nil {
		return nil, fmt.Errorf("create map file: %w", err)
	}
	if err := c.r.Save(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("encode map png: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close map file: %w", err)
	}

	data, err := os.ReadFile(r.opts.Output)
	if err != nil {
		return nil, fmt.Errorf("read map file: %w", err)
	}

	r.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("map rendered",
		"path", r.opts.Output,
		"bytes", len(data),
		"scale", r.opts.Scale,
		"date", domain.FormatDate(date),
	)
	return data, nil
}

// canvas holds one drawing pass.
type canvas struct {
	*Renderer
	r         chart.Renderer
	vp        Viewport
	fontScale float64
}

func (r *Renderer) newCanvas() (*canvas, error) {
	cr, err := chart.PNG(r.opts.Width, r.opts.Height)
	if err != nil {
		return nil, fmt.Errorf("create png canvas: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	cr.SetDPI(r.opts.DPI)
	cr.SetFont(font)

	return &canvas{
		Renderer: r,
		r:        cr,
		vp:       mapViewport(r.proj, r.extent, r.opts.Width, r.opts.Height),
		// Sizes below are tuned for a 10 inch wide figure.
		fontScale: float64(r.opts.Width) / (r.opts.DPI * 10),
	}, nil
}

// MapViewport returns the map frame of a width x height canvas, leaving room
// for the title above and the colour bar to the right.
func MapViewport(width, height int) Viewport {
	return mapViewport(USLambert(), ContinentalUS, width, height)
}

func mapViewport(proj Lambert, extent Extent, width, height int) Viewport {
	w, h := float64(width), float64(height)
	area := Rect{
		Left:   int(0.02 * w),
		Top:    int(0.14 * h),
		Right:  int(0.84 * w),
		Bottom: int(0.92 * h),
	}
	return NewViewport(proj, extent, area)
}

// px converts a length in points to pixels.
func (c *canvas) px(points float64) float64 {
	return points * c.opts.DPI / 72 * c.fontScale
}

func (c *canvas) draw(anomaly domain.Grid, palette Palette, date time.Time) {
	c.fillRect(Rect{Right: c.opts.Width, Bottom: c.opts.Height}, white)
	c.fillRect(c.vp.Frame, oceanBlue)
	c.drawCells(anomaly, palette)
	for _, l := range c.layers {
		c.drawLayer(l)
	}
	c.maskMargins()
	c.strokeRect(c.vp.Frame, black, 1)
	if c.opts.CityMarkers {
		c.drawCities()
	}
	c.drawColorbar(palette)
	c.drawTitle(date)
	c.drawFooter()
}

func (c *canvas) drawCells(g domain.Grid, palette Palette) {
	dlat, dlon := spacing(g.Lats)/2, spacing(g.Lons)/2
	for i, lat := range g.Lats {
		for j, rawLon := range g.Lons {
			v := g.At(i, j)
			lon := NormalizeLon(rawLon)
			if math.IsNaN(v) || !drawable(c.extent, c.vp, lon, lat, dlon, dlat) {
				continue
			}
			col := palette.ColorFor(v)
			c.r.SetFillColor(col)
			c.r.SetStrokeColor(col)
			c.r.SetStrokeWidth(1)
			c.moveTo(lon-dlon, lat-dlat)
			c.lineTo(lon+dlon, lat-dlat)
			c.lineTo(lon+dlon, lat+dlat)
			c.lineTo(lon-dlon, lat+dlat)
			c.r.Close()
			c.r.FillStroke()
		}
	}
}

func (c *canvas) drawLayer(l Layer) {
	c.r.SetFillColor(l.Color)
	c.r.SetStrokeColor(l.Color)
	c.r.SetStrokeWidth(math.Max(1, c.px(l.Stroke)))
	for _, path := range l.Paths {
		if l.Fill {
			c.tracePath(path, false)
			c.r.Close()
			c.r.Fill()
			continue
		}
		c.tracePath(path, true)
		c.r.Stroke()
	}
}

// tracePath adds path to the current figure. With split set, segments far
// outside the map are lifted rather than drawn.
func (c *canvas) tracePath(path orb.LineString, split bool) {
	pen := false
	for _, p := range path {
		lon, lat := NormalizeLon(p.Lon()), p.Lat()
		if split && !c.extent.Contains(lon, lat, 2*cellPad) {
			pen = false
			continue
		}
		if !pen {
			c.moveTo(lon, lat)
			pen = true
			continue
		}
		c.lineTo(lon, lat)
	}
}

func (c *canvas) maskMargins() {
	f := c.vp.Frame
	w, h := c.opts.Width, c.opts.Height
	c.fillRect(Rect{Right: w, Bottom: f.Top}, white)
	c.fillRect(Rect{Top: f.Bottom, Right: w, Bottom: h}, white)
	c.fillRect(Rect{Top: f.Top, Right: f.Left, Bottom: f.Bottom}, white)
	c.fillRect(Rect{Left: f.Right, Top: f.Top, Right: w, Bottom: f.Bottom}, white)
}

func (c *canvas) drawCities() {
	radius := math.Max(1, c.px(1.5))
	c.r.SetFontSize(6 * c.fontScale)
	for _, city := range c.cities {
		if !c.vp.Visible(city.Lon, city.Lat) {
			continue
		}
		x, y := c.vp.Pixel(city.Lon, city.Lat)
		c.r.SetFillColor(markerGray)
		c.r.Circle(radius, x, y)
		c.r.Fill()

		if !c.opts.CityLabels {
			continue
		}
		lx, ly := c.vp.Pixel(city.Lon+0.25, city.Lat+0.15)
		c.haloText(city.Name, lx, ly)
	}
}

// haloText draws body with a light outline so it stays legible over any cell colour.
func (c *canvas) haloText(body string, x, y int) {
	d := int(math.Max(1, math.Round(c.px(0.75))))
	c.r.SetFontColor(labelHalo)
	for _, off := range [][2]int{{-d, 0}, {d, 0}, {0, -d}, {0, d}, {-d, -d}, {d, d}, {-d, d}, {d, -d}} {
		c.r.Text(body, x+off[0], y+off[1])
	}
	c.r.SetFontColor(labelInk)
	c.r.Text(body, x, y)
}

func (c *canvas) drawColorbar(palette Palette) {
	f := c.vp.Frame
	barW := int(0.018 * float64(c.opts.Width))
	left := f.Right + int(0.025*float64(c.opts.Width))
	right := left + barW
	top := f.Top + f.Height()/12
	bottom := f.Bottom - f.Height()/12
	tip := int(float64(barW) * 1.2)

	// Interior classes fill the bar between the two extension triangles.
	inner := len(palette.Bounds) - 1
	span := float64(bottom - top - 2*tip)
	for k := 0; k < inner; k++ {
		y0 := bottom - tip - int(math.Round(float64(k)*span/float64(inner)))
		y1 := bottom - tip - int(math.Round(float64(k+1)*span/float64(inner)))
		c.fillRect(Rect{Left: left, Top: y1, Right: right, Bottom: y0}, palette.Colors[k+1])
	}
	mid := (left + right) / 2
	c.fillTriangle([3][2]int{{left, bottom - tip}, {right, bottom - tip}, {mid, bottom}}, palette.Colors[0])
	c.fillTriangle([3][2]int{{left, top + tip}, {right, top + tip}, {mid, top}}, palette.Colors[len(palette.Colors)-1])

	c.r.SetStrokeColor(black)
	c.r.SetStrokeWidth(1)
	c.r.MoveTo(left, top+tip)
	c.r.LineTo(mid, top)
	c.r.LineTo(right, top+tip)
	c.r.LineTo(right, bottom-tip)
	c.r.LineTo(mid, bottom)
	c.r.LineTo(left, bottom-tip)
	c.r.Close()
	c.r.Stroke()

	c.r.SetFontSize(10 * c.fontScale)
	c.r.SetFontColor(black)
	tickLen := int(math.Max(2, c.px(3.5)))
	var labelW int
	for k, b := range palette.Bounds {
		y := bottom - tip - int(math.Round(float64(k)*span/float64(inner)))
		c.r.MoveTo(right, y)
		c.r.LineTo(right+tickLen, y)
		c.r.Stroke()

		text := formatTick(b)
		box := c.r.MeasureText(text)
		labelW = max(labelW, box.Width())
		c.r.Text(text, right+tickLen+2, y+box.Height()/2)
	}

	c.r.SetFontSize(12 * c.fontScale)
	box := c.r.MeasureText(ColorbarLabel)
	x := right + tickLen + labelW + int(c.px(10)) + box.Height()
	y := (top+bottom)/2 + box.Width()/2
	c.r.SetTextRotation(3 * math.Pi / 2)
	c.r.Text(ColorbarLabel, x, y)
	c.r.ClearTextRotation()
}

func (c *canvas) drawTitle(date time.Time) {
	lines := []string{
		"U.S. Temperature Difference from Normal:",
		fmt.Sprintf("%s (°C)", domain.FormatDate(date)),
	}
	c.r.SetFontSize(14 * c.fontScale)
	c.r.SetFontColor(black)

	f := c.vp.Frame
	lineH := int(c.px(14) * 1.3)
	y := f.Top - int(c.px(6)) - lineH*(len(lines)-1)
	centre := (f.Left + f.Right) / 2
	for _, line := range lines {
		box := c.r.MeasureText(line)
		c.r.Text(line, centre-box.Width()/2, y)
		y += lineH
	}
}

func (c *canvas) drawFooter() {
	c.r.SetFontSize(9 * c.fontScale)
	c.r.SetFontColor(boundaryGray)
	box := c.r.MeasureText(Credit(c.opts.Handle))
	c.r.Text(Credit(c.opts.Handle), c.vp.Frame.Left, c.vp.Frame.Bottom+int(c.px(6))+box.Height())
}

// Credit is the attribution printed under the map.
func Credit(handle string) string {
	return "Data: NOAA CPC • Map: @" + handle
}

func (c *canvas) moveTo(lon, lat float64) { c.r.MoveTo(c.vp.Pixel(lon, lat)) }
func (c *canvas) lineTo(lon, lat float64) { c.r.LineTo(c.vp.Pixel(lon, lat)) }

func (c *canvas) fillRect(r Rect, col drawing.Color) {
	c.r.SetFillColor(col)
	c.r.MoveTo(r.Left, r.Top)
	c.r.LineTo(r.Right, r.Top)
	c.r.LineTo(r.Right, r.Bottom)
	c.r.LineTo(r.Left, r.Bottom)
	c.r.Close()
	c.r.Fill()
}

func (c *canvas) strokeRect(r Rect, col drawing.Color, width float64) {
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(r.Left, r.Top)
	c.r.LineTo(r.Right, r.Top)
	c.r.LineTo(r.Right, r.Bottom)
	c.r.LineTo(r.Left, r.Bottom)
	c.r.Close()
	c.r.Stroke()
}

func (c *canvas) fillTriangle(pts [3][2]int, col drawing.Color) {
	c.r.SetFillColor(col)
	c.r.MoveTo(pts[0][0], pts[0][1])
	c.r.LineTo(pts[1][0], pts[1][1])
	c.r.LineTo(pts[2][0], pts[2][1])
	c.r.Close()
	c.r.Fill()
}

// drawable reports whether the grid cell centred on lon/lat is painted. The
// coarse extent check keeps far-away points out of the projection.
func drawable(extent Extent, vp Viewport, lon, lat, dlon, dlat float64) bool {
	return extent.Contains(lon, lat, cellPad) && vp.CellVisible(lon, lat, dlon, dlat)
}

// spacing returns the absolute step of a regular coordinate axis.
func spacing(coords []float64) float64 {
	if len(coords) < 2 {
		return 0.5
	}
	return math.Abs(coords[1] - coords[0])
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
