package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Real is a dense real-valued raster with one or more channels.
// Elems holds Channels contiguous row-major planes of Height*Width values.
type Real struct {
	Elems    []float64
	Width    int
	Height   int
	Channels int
}

// NewReal allocates a zeroed raster of the given size.
func NewReal(width, height, channels int) *Real {
	return &Real{
		Elems:    make([]float64, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// FromPlane wraps a single row-major plane as a one-channel raster.
// The slice is retained, not copied.
func FromPlane(plane []float64, width, height int) *Real {
	if len(plane) != width*height {
		panic(fmt.Sprintf("plane has %d elements, want %dx%d", len(plane), width, height))
	}
	return &Real{Elems: plane, Width: width, Height: height, Channels: 1}
}

func (f *Real) index(c, y, x int) int {
	return (c*f.Height+y)*f.Width + x
}

// At returns the value of channel c at row y, column x.
func (f *Real) At(c, y, x int) float64 { return f.Elems[f.index(c, y, x)] }

// Set assigns the value of channel c at row y, column x.
func (f *Real) Set(c, y, x int, v float64) { f.Elems[f.index(c, y, x)] = v }

// Plane returns channel c as a row-major view into the raster.
func (f *Real) Plane(c int) []float64 {
	n := f.Width * f.Height
	return f.Elems[c*n : (c+1)*n]
}

// Clone returns a deep copy.
func (f *Real) Clone() *Real {
	g := NewReal(f.Width, f.Height, f.Channels)
	copy(g.Elems, f.Elems)
	return g
}

// SameShape reports whether g has identical dimensions.
func (f *Real) SameShape(g *Real) bool {
	return f.Width == g.Width && f.Height == g.Height && f.Channels == g.Channels
}

func mustSameShape(f, g *Real) {
	if !f.SameShape(g) {
		panic(fmt.Sprintf("shape mismatch: %dx%dx%d vs %dx%dx%d",
			f.Channels, f.Height, f.Width, g.Channels, g.Height, g.Width))
	}
}

// Sum returns the sum over all channels and pixels.
func (f *Real) Sum() float64 { return floats.Sum(f.Elems) }

// Max returns the largest element.
func (f *Real) Max() float64 { return floats.Max(f.Elems) }

// Scale multiplies every element by s in place.
func (f *Real) Scale(s float64) { floats.Scale(s, f.Elems) }

// Add accumulates g into f in place.
func (f *Real) Add(g *Real) {
	mustSameShape(f, g)
	floats.Add(f.Elems, g.Elems)
}

// Sub subtracts g from f in place.
func (f *Real) Sub(g *Real) {
	mustSameShape(f, g)
	floats.Sub(f.Elems, g.Elems)
}

// AddScaled accumulates s*g into f in place.
func (f *Real) AddScaled(s float64, g *Real) {
	mustSameShape(f, g)
	floats.AddScaled(f.Elems, s, g.Elems)
}

// Dot returns the inner product of two rasters of identical shape.
func Dot(f, g *Real) float64 {
	mustSameShape(f, g)
	return floats.Dot(f.Elems, g.Elems)
}

// Clamp limits every element to [lo, hi] in place.
func (f *Real) Clamp(lo, hi float64) {
	for i, v := range f.Elems {
		if v < lo {
			f.Elems[i] = lo
		} else if v > hi {
			f.Elems[i] = hi
		}
	}
}

// Norm2 returns the Euclidean norm of the raster.
func (f *Real) Norm2() float64 { return math.Sqrt(floats.Dot(f.Elems, f.Elems)) }
