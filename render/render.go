// Package render draws diagnostic figures of the optical state: heatmaps of
// PSF, height-map and phase planes, and cross-section profiles. Figures are
// rasterized with gonum/plot and written as PNGs.
package render

import (
	"fmt"
	"image"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	// Liberation fonts register automatically on import.
	_ "gonum.org/v1/plot/font/liberation"

	"github.com/proxopt/proxopt/field"
)

// planeGrid adapts one raster channel to plotter.GridXYZ.
type planeGrid struct {
	data []float64
	w, h int
}

func (g planeGrid) Dims() (int, int)   { return g.w, g.h }
func (g planeGrid) Z(c, r int) float64 { return g.data[(g.h-1-r)*g.w+c] }
func (g planeGrid) X(c int) float64    { return float64(c) }
func (g planeGrid) Y(r int) float64    { return float64(r) }

// Heatmap renders one channel of a raster as a heatmap image.
func Heatmap(f *field.Real, channel int, title string) (image.Image, error) {
	if channel < 0 || channel >= f.Channels {
		return nil, fmt.Errorf("render: channel %d outside [0,%d)", channel, f.Channels)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(planeGrid{data: f.Plane(channel), w: f.Width, h: f.Height},
		palette.Heat(64, 1))
	p.Add(hm)

	c := vgimg.New(vg.Points(480), vg.Points(480))
	p.Draw(draw.New(c))
	return c.Image(), nil
}

// SaveHeatmap writes a channel heatmap as a PNG.
func SaveHeatmap(path string, f *field.Real, channel int, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	if channel < 0 || channel >= f.Channels {
		return fmt.Errorf("render: channel %d outside [0,%d)", channel, f.Channels)
	}
	p.Add(plotter.NewHeatMap(planeGrid{data: f.Plane(channel), w: f.Width, h: f.Height},
		palette.Heat(64, 1)))
	return writePNG(path, p)
}

// SaveProfile plots one row of a channel as a line profile, a quick view of
// PSF cross-sections.
func SaveProfile(path string, f *field.Real, channel, row int, title string) error {
	if channel < 0 || channel >= f.Channels {
		return fmt.Errorf("render: channel %d outside [0,%d)", channel, f.Channels)
	}
	if row < 0 || row >= f.Height {
		return fmt.Errorf("render: row %d outside [0,%d)", row, f.Height)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "value"

	plane := f.Plane(channel)
	pts := make(plotter.XYs, f.Width)
	maxV := 0.0
	for x := 0; x < f.Width; x++ {
		v := plane[row*f.Width+x]
		pts[x] = plotter.XY{X: float64(x), Y: v}
		maxV = math.Max(maxV, math.Abs(v))
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("render: profile line: %w", err)
	}
	p.Add(plotter.NewGrid(), line)
	if maxV > 0 {
		p.Y.Tick.Marker = StepTicks{Step: maxV / 5, Format: "%.2g"}
	}
	return writePNG(path, p)
}

func writePNG(path string, p *plot.Plot) error {
	c := vgimg.New(vg.Points(480), vg.Points(480))
	p.Draw(draw.New(c))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %q: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("render: write %q: %w", path, err)
	}
	return f.Close()
}

// StepTicks marks axis ticks at fixed intervals.
type StepTicks struct {
	Step   float64
	Format string
}

// Ticks implements plot.Ticker.
func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	if t.Step <= 0 || max <= min {
		return nil
	}
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(t.Format, v)})
	}
	return ticks
}
