// Package fourier provides 2D discrete Fourier transforms and kernel
// preparation helpers for frequency-domain convolution. Transforms run
// rows-then-columns over gonum's complex FFT.
package fourier

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT2 computes two-dimensional transforms of row-major planes of a fixed
// size. The zero-frequency component is at index (0,0). An FFT2 is not safe
// for concurrent use; allocate one per goroutine.
type FFT2 struct {
	width, height int
	row, col      *fourier.CmplxFFT
	tmp           []complex128
}

// NewFFT2 prepares transforms for width x height planes.
func NewFFT2(width, height int) *FFT2 {
	return &FFT2{
		width:  width,
		height: height,
		row:    fourier.NewCmplxFFT(width),
		col:    fourier.NewCmplxFFT(height),
		tmp:    make([]complex128, height),
	}
}

func (t *FFT2) check(a []complex128) {
	if len(a) != t.width*t.height {
		panic(fmt.Sprintf("plane has %d elements, want %dx%d", len(a), t.height, t.width))
	}
}

// Forward replaces a with its unnormalized 2D DFT.
func (t *FFT2) Forward(a []complex128) { t.transform(a, true) }

// Inverse replaces a with its inverse 2D DFT, scaled by 1/(width*height) so
// that Inverse(Forward(a)) == a.
func (t *FFT2) Inverse(a []complex128) {
	t.transform(a, false)
	scale := complex(1/float64(t.width*t.height), 0)
	for i := range a {
		a[i] *= scale
	}
}

func (t *FFT2) transform(a []complex128, forward bool) {
	t.check(a)

	// rows
	for y := 0; y < t.height; y++ {
		row := a[y*t.width : (y+1)*t.width]
		if forward {
			t.row.Coefficients(row, row)
		} else {
			t.row.Sequence(row, row)
		}
	}

	// cols
	for x := 0; x < t.width; x++ {
		for y := 0; y < t.height; y++ {
			t.tmp[y] = a[y*t.width+x]
		}
		if forward {
			t.col.Coefficients(t.tmp, t.tmp)
		} else {
			t.col.Sequence(t.tmp, t.tmp)
		}
		for y := 0; y < t.height; y++ {
			a[y*t.width+x] = t.tmp[y]
		}
	}
}

// IFFTShift moves the center of a centered plane to (0,0), the inverse of the
// usual fftshift. For even sizes the two shifts coincide.
func IFFTShift(a []complex128, width, height int) []complex128 {
	out := make([]complex128, len(a))
	shY := height / 2
	shX := width / 2
	for y := 0; y < height; y++ {
		yy := (y + shY) % height
		for x := 0; x < width; x++ {
			xx := (x + shX) % width
			out[y*width+x] = a[yy*width+xx]
		}
	}
	return out
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
