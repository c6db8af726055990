package optics

import (
	"fmt"
	"math"

	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/fourier"
)

// FresnelPropagator carries a complex field from the DOE plane to the sensor
// plane a fixed distance away, using the near-field Fresnel approximation as
// a frequency-domain transfer function
//
//	H(f) = exp(i*k*d) * exp(-i*pi*lambda*d*(fx^2 + fy^2))
//
// per wavelength. The field is zero-padded by a quarter on each side before
// transforming to keep wraparound out of the region of interest. |H| = 1, so
// the propagator preserves field energy; PSF normalization happens downstream.
type FresnelPropagator struct {
	width, height int // unpadded field size
	padX, padY    int
	transfer      *field.Cmplx // per-wavelength transfer function on the padded grid
	fft           *fourier.FFT2
}

// NewFresnelPropagator precomputes the transfer function for width x height
// fields with len(wavelengths) channels.
func NewFresnelPropagator(width, height int, wavelengths []float64, distance, interval float64) (*FresnelPropagator, error) {
	if len(wavelengths) == 0 {
		return nil, fmt.Errorf("optics: no wavelengths given")
	}
	if distance <= 0 {
		return nil, fmt.Errorf("optics: propagation distance must be positive, got %g", distance)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("optics: sample interval must be positive, got %g", interval)
	}

	p := &FresnelPropagator{
		width:  width,
		height: height,
		padX:   width / 4,
		padY:   height / 4,
	}
	pw := width + 2*p.padX
	ph := height + 2*p.padY
	p.fft = fourier.NewFFT2(pw, ph)
	p.transfer = field.NewCmplx(pw, ph, len(wavelengths))

	for c, lambda := range wavelengths {
		phase0 := twoPi / lambda * distance // constant propagation phase exp(i*k*d)
		plane := p.transfer.Plane(c)
		for y := 0; y < ph; y++ {
			fy := freq(y, ph) / (interval * float64(ph))
			for x := 0; x < pw; x++ {
				fx := freq(x, pw) / (interval * float64(pw))
				phi := phase0 - math.Pi*lambda*distance*(fx*fx+fy*fy)
				s, cc := math.Sincos(phi)
				plane[y*pw+x] = complex(cc, s)
			}
		}
	}
	return p, nil
}

// freq maps an FFT bin to its signed integer frequency.
func freq(i, n int) float64 {
	if i <= n/2 {
		return float64(i)
	}
	return float64(i - n)
}

// Propagate returns the field at the sensor plane. The input must match the
// propagator's configured size and channel count.
func (p *FresnelPropagator) Propagate(in *field.Cmplx) *field.Cmplx {
	if in.Width != p.width || in.Height != p.height || in.Channels != p.transfer.Channels {
		panic(fmt.Sprintf("field is %dx%dx%d, propagator wants %dx%dx%d",
			in.Channels, in.Height, in.Width, p.transfer.Channels, p.height, p.width))
	}
	pw := p.width + 2*p.padX
	ph := p.height + 2*p.padY
	out := field.NewCmplx(in.Width, in.Height, in.Channels)
	work := make([]complex128, pw*ph)

	for c := 0; c < in.Channels; c++ {
		for i := range work {
			work[i] = 0
		}
		src := in.Plane(c)
		for y := 0; y < p.height; y++ {
			copy(work[(y+p.padY)*pw+p.padX:(y+p.padY)*pw+p.padX+p.width], src[y*p.width:(y+1)*p.width])
		}

		p.fft.Forward(work)
		h := p.transfer.Plane(c)
		for i := range work {
			work[i] *= h[i]
		}
		p.fft.Inverse(work)

		dst := out.Plane(c)
		for y := 0; y < p.height; y++ {
			copy(dst[y*p.width:(y+1)*p.width], work[(y+p.padY)*pw+p.padX:(y+p.padY)*pw+p.padX+p.width])
		}
	}
	return out
}
