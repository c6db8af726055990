// Package denoise provides concrete implementations of the solver's
// denoiser contract. Gaussian is a dependency-free reference prior for tests
// and baselines; ONNX (cgo builds only) runs a pretrained network through
// onnxruntime.
package denoise

import (
	"math"

	"github.com/proxopt/proxopt/field"
)

// Identity returns its input unchanged; useful for isolating the data term.
type Identity struct{}

// Denoise returns a copy of x.
func (Identity) Denoise(x *field.Real, _ float64) *field.Real { return x.Clone() }

// Gaussian smooths with a separable Gaussian kernel whose width follows the
// requested noise level: std = Scale * sigma pixels. It is a deliberately
// simple prior; it satisfies the denoiser contract without any learned
// parameters and keeps solver behavior deterministic.
type Gaussian struct {
	// Scale converts a noise level on [0,1] to a blur std in pixels.
	// Zero means the default of 25.
	Scale float64
}

// Denoise blurs x with std proportional to sigma. Edges replicate.
func (g Gaussian) Denoise(x *field.Real, sigma float64) *field.Real {
	scale := g.Scale
	if scale == 0 {
		scale = 25
	}
	std := scale * sigma
	if std < 1e-3 {
		return x.Clone()
	}
	kernel := gaussKernel(std)
	tmp := blurAxis(x, kernel, true)
	return blurAxis(tmp, kernel, false)
}

func gaussKernel(std float64) []float64 {
	r := int(math.Ceil(3 * std))
	if r < 1 {
		r = 1
	}
	k := make([]float64, 2*r+1)
	sum := 0.0
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * std * std))
		k[i+r] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func blurAxis(x *field.Real, kernel []float64, horizontal bool) *field.Real {
	r := len(kernel) / 2
	out := field.NewReal(x.Width, x.Height, x.Channels)
	for c := 0; c < x.Channels; c++ {
		src := x.Plane(c)
		dst := out.Plane(c)
		for y := 0; y < x.Height; y++ {
			for xx := 0; xx < x.Width; xx++ {
				sum := 0.0
				for d := -r; d <= r; d++ {
					sy, sx := y, xx
					if horizontal {
						sx = clamp(xx+d, 0, x.Width-1)
					} else {
						sy = clamp(y+d, 0, x.Height-1)
					}
					sum += kernel[d+r] * src[sy*x.Width+sx]
				}
				dst[y*x.Width+xx] = sum
			}
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
