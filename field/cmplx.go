package field

import "fmt"

// Cmplx is a dense complex-valued raster with one or more channels, laid out
// exactly like Real: contiguous row-major planes per channel.
type Cmplx struct {
	Elems    []complex128
	Width    int
	Height   int
	Channels int
}

// NewCmplx allocates a zeroed complex raster.
func NewCmplx(width, height, channels int) *Cmplx {
	return &Cmplx{
		Elems:    make([]complex128, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

func (f *Cmplx) index(c, y, x int) int {
	return (c*f.Height+y)*f.Width + x
}

// At returns the value of channel c at row y, column x.
func (f *Cmplx) At(c, y, x int) complex128 { return f.Elems[f.index(c, y, x)] }

// Set assigns the value of channel c at row y, column x.
func (f *Cmplx) Set(c, y, x int, v complex128) { f.Elems[f.index(c, y, x)] = v }

// Plane returns channel c as a row-major view into the raster.
func (f *Cmplx) Plane(c int) []complex128 {
	n := f.Width * f.Height
	return f.Elems[c*n : (c+1)*n]
}

// Clone returns a deep copy.
func (f *Cmplx) Clone() *Cmplx {
	g := NewCmplx(f.Width, f.Height, f.Channels)
	copy(g.Elems, f.Elems)
	return g
}

// Mul multiplies f by g elementwise in place.
func (f *Cmplx) Mul(g *Cmplx) {
	if f.Width != g.Width || f.Height != g.Height || f.Channels != g.Channels {
		panic(fmt.Sprintf("shape mismatch: %dx%dx%d vs %dx%dx%d",
			f.Channels, f.Height, f.Width, g.Channels, g.Height, g.Width))
	}
	for i := range f.Elems {
		f.Elems[i] *= g.Elems[i]
	}
}

// MulReal multiplies every channel of f elementwise by a single real plane.
func (f *Cmplx) MulReal(plane []float64) {
	n := f.Width * f.Height
	if len(plane) != n {
		panic(fmt.Sprintf("plane has %d elements, want %d", len(plane), n))
	}
	for c := 0; c < f.Channels; c++ {
		p := f.Plane(c)
		for i := range p {
			p[i] *= complex(plane[i], 0)
		}
	}
}

// AbsSq returns |f|^2 as a real raster of the same shape.
func (f *Cmplx) AbsSq() *Real {
	g := NewReal(f.Width, f.Height, f.Channels)
	for i, v := range f.Elems {
		re, im := real(v), imag(v)
		g.Elems[i] = re*re + im*im
	}
	return g
}
