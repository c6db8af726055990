package optics

import "math"

// Grid is the spatial sampling of the simulated wavefront: row-major
// coordinate planes and the physical distance between samples. A Grid is
// immutable once built and is shared read-only by the aperture, height map
// and propagator.
type Grid struct {
	X, Y     []float64 // coordinate planes, len Width*Height
	Width    int
	Height   int
	Interval float64 // sample interval in meters
}

// NewGrid builds a centered sampling grid. Sample i along an axis of n points
// sits at (i - n/2) * interval, matching an integer mgrid centered on zero.
func NewGrid(width, height int, interval float64) *Grid {
	g := &Grid{
		X:        make([]float64, width*height),
		Y:        make([]float64, width*height),
		Width:    width,
		Height:   height,
		Interval: interval,
	}
	for y := 0; y < height; y++ {
		yv := (float64(y) - float64(height/2)) * interval
		for x := 0; x < width; x++ {
			i := y*width + x
			g.X[i] = (float64(x) - float64(width/2)) * interval
			g.Y[i] = yv
		}
	}
	return g
}

// MaxX returns the largest x coordinate on the grid, used as the aperture
// radius.
func (g *Grid) MaxX() float64 {
	return (float64(g.Width) - 1 - float64(g.Width/2)) * g.Interval
}

// RadiusSq returns the plane of squared radii x^2 + y^2.
func (g *Grid) RadiusSq() []float64 {
	r := make([]float64, len(g.X))
	for i := range r {
		r[i] = g.X[i]*g.X[i] + g.Y[i]*g.Y[i]
	}
	return r
}

// CircularAperture returns a binary mask that is 1 strictly inside the
// largest circle the grid supports and 0 elsewhere.
func CircularAperture(g *Grid) []float64 {
	max := g.MaxX()
	mask := make([]float64, len(g.X))
	for i := range mask {
		if math.Sqrt(g.X[i]*g.X[i]+g.Y[i]*g.Y[i]) < max {
			mask[i] = 1
		}
	}
	return mask
}
