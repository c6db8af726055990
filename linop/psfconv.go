package linop

import (
	"fmt"

	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/fourier"
)

// Boundary selects the convolution's boundary handling.
type Boundary int

const (
	// Circular wraps the image around, diagonalizing the operator in the
	// Fourier domain.
	Circular Boundary = iota
	// Linear zero-pads the image and crops the centered "same" region.
	Linear
)

// PSFConv convolves images with a fixed multi-channel point spread function,
// channel by channel. Both the forward convolution and its exact adjoint
// (correlation with the flipped PSF under the same boundary mode) run in the
// Fourier domain over a precomputed optical transfer function.
type PSFConv struct {
	imgW, imgH   int
	channels     int
	boundary     Boundary
	workW, workH int
	otf          *field.Cmplx
	fft          *fourier.FFT2
}

// NewPSFConv precomputes the transfer function of a centered PSF for images
// of size imgW x imgH with the PSF's channel count.
func NewPSFConv(psf *field.Real, imgW, imgH int, boundary Boundary) (*PSFConv, error) {
	if psf.Width > imgW || psf.Height > imgH {
		return nil, fmt.Errorf("linop: psf %dx%d larger than image %dx%d",
			psf.Height, psf.Width, imgH, imgW)
	}
	a := &PSFConv{
		imgW:     imgW,
		imgH:     imgH,
		channels: psf.Channels,
		boundary: boundary,
	}
	switch boundary {
	case Circular:
		a.workW, a.workH = imgW, imgH
	case Linear:
		a.workW = fourier.NextPow2(imgW + psf.Width - 1)
		a.workH = fourier.NextPow2(imgH + psf.Height - 1)
	default:
		return nil, fmt.Errorf("linop: unknown boundary mode %d", boundary)
	}
	a.fft = fourier.NewFFT2(a.workW, a.workH)
	a.otf = field.NewCmplx(a.workW, a.workH, psf.Channels)
	for c := 0; c < psf.Channels; c++ {
		otf := fourier.PSF2OTF(psf.Plane(c), psf.Width, psf.Height, a.workW, a.workH, a.fft)
		copy(a.otf.Plane(c), otf)
	}
	return a, nil
}

func (a *PSFConv) checkShape(x *field.Real) {
	if x.Width != a.imgW || x.Height != a.imgH || x.Channels != a.channels {
		panic(fmt.Sprintf("image is %dx%dx%d, operator wants %dx%dx%d",
			x.Channels, x.Height, x.Width, a.channels, a.imgH, a.imgW))
	}
}

// Forward convolves x with the PSF.
func (a *PSFConv) Forward(x *field.Real) *field.Real { return a.apply(x, false) }

// Adjoint correlates y with the PSF, the transpose of Forward.
func (a *PSFConv) Adjoint(y *field.Real) *field.Real { return a.apply(y, true) }

// apply embeds each channel on the work grid, multiplies by the (conjugated)
// transfer function and crops back. Embedding and cropping use the same
// window, so the conjugate spectrum is the exact adjoint in both boundary
// modes.
func (a *PSFConv) apply(x *field.Real, conj bool) *field.Real {
	a.checkShape(x)
	out := field.NewReal(a.imgW, a.imgH, a.channels)
	work := make([]complex128, a.workW*a.workH)
	for c := 0; c < a.channels; c++ {
		for i := range work {
			work[i] = 0
		}
		src := x.Plane(c)
		for y := 0; y < a.imgH; y++ {
			for xx := 0; xx < a.imgW; xx++ {
				work[y*a.workW+xx] = complex(src[y*a.imgW+xx], 0)
			}
		}
		a.fft.Forward(work)
		otf := a.otf.Plane(c)
		if conj {
			for i := range work {
				o := otf[i]
				work[i] *= complex(real(o), -imag(o))
			}
		} else {
			for i := range work {
				work[i] *= otf[i]
			}
		}
		a.fft.Inverse(work)
		dst := out.Plane(c)
		for y := 0; y < a.imgH; y++ {
			for xx := 0; xx < a.imgW; xx++ {
				dst[y*a.imgW+xx] = real(work[y*a.workW+xx])
			}
		}
	}
	return out
}

// CanSolveLS reports whether the closed-form data-consistency solve applies;
// it requires the circular boundary, where the operator is diagonal in the
// Fourier domain.
func (a *PSFConv) CanSolveLS() bool { return a.boundary == Circular }

// SolveLS solves argmin_x ||A(x)-y||^2 + rho*||x-v||^2 per channel via
//
//	x = F^-1[ (conj(H).F(y) + rho.F(v)) / (|H|^2 + rho) ].
//
// Only valid in circular mode; see CanSolveLS.
func (a *PSFConv) SolveLS(y, v *field.Real, rho float64) *field.Real {
	if !a.CanSolveLS() {
		panic("linop: closed-form least squares requires the circular boundary")
	}
	a.checkShape(y)
	a.checkShape(v)
	out := field.NewReal(a.imgW, a.imgH, a.channels)
	n := a.workW * a.workH
	yh := make([]complex128, n)
	vh := make([]complex128, n)
	for c := 0; c < a.channels; c++ {
		toComplex(yh, y.Plane(c))
		toComplex(vh, v.Plane(c))
		a.fft.Forward(yh)
		a.fft.Forward(vh)
		otf := a.otf.Plane(c)
		for i := range yh {
			h := otf[i]
			hc := complex(real(h), -imag(h))
			num := hc*yh[i] + complex(rho, 0)*vh[i]
			den := real(h)*real(h) + imag(h)*imag(h) + rho
			yh[i] = num / complex(den, 0)
		}
		a.fft.Inverse(yh)
		dst := out.Plane(c)
		for i := range dst {
			dst[i] = real(yh[i])
		}
	}
	return out
}

func toComplex(dst []complex128, src []float64) {
	for i, v := range src {
		dst[i] = complex(v, 0)
	}
}

// Convolve is a convenience wrapper that builds a PSFConv for the image's
// size and applies it once.
func Convolve(img, psf *field.Real, circular bool) *field.Real {
	boundary := Linear
	if circular {
		boundary = Circular
	}
	op, err := NewPSFConv(psf, img.Width, img.Height, boundary)
	if err != nil {
		panic(err)
	}
	return op.Forward(img)
}
