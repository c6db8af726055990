package optics

import (
	"errors"
	"fmt"
	"math"

	"github.com/proxopt/proxopt/field"
)

const twoPi = 2 * math.Pi

// ErrNotFreeForm is returned for operations that only apply to the free-form
// height representation.
var ErrNotFreeForm = errors.New("optics: height map is not free-form")

// HeightMap is the physical surface description of the DOE. Exactly one of
// two representations is active, selected at construction: a free-form
// per-pixel height field (stored as its square root so the height stays
// non-negative under optimization), or a set of scalar coefficients over an
// externally supplied Zernike basis.
type HeightMap struct {
	grid           *Grid
	wavelengths    []float64
	deltaN         []float64 // refractive index minus 1, per wavelength
	waveNumbers    []float64 // 2*pi/lambda, per wavelength
	sensorDistance float64

	// free-form representation
	SqrtHeight []float64 // row-major plane; mutable by an external optimizer

	// Zernike representation
	Coeffs []float64 // one scalar per basis term; mutable by an external optimizer
	basis  *ZernikeVolume
}

// NewHeightMap constructs a height map over the grid. If basis is nil the map
// is free-form and initialized from the ideal Fresnel lens profile for the
// middle wavelength; otherwise the Zernike representation is used with
// initCoeffs supplying any nonzero starting coefficients (missing terms start
// at zero).
func NewHeightMap(grid *Grid, wavelengths, refractiveIdcs []float64, sensorDistance float64,
	basis *ZernikeVolume, initCoeffs map[int]float64) (*HeightMap, error) {

	if len(wavelengths) == 0 {
		return nil, errors.New("optics: no wavelengths given")
	}
	if len(wavelengths) != len(refractiveIdcs) {
		return nil, fmt.Errorf("optics: %d wavelengths but %d refractive indices",
			len(wavelengths), len(refractiveIdcs))
	}
	if sensorDistance <= 0 {
		return nil, fmt.Errorf("optics: sensor distance must be positive, got %g", sensorDistance)
	}
	if basis != nil && (basis.Width != grid.Width || basis.Height != grid.Height) {
		return nil, fmt.Errorf("optics: zernike basis is %dx%d but grid is %dx%d",
			basis.Height, basis.Width, grid.Height, grid.Width)
	}

	hm := &HeightMap{
		grid:           grid,
		wavelengths:    append([]float64(nil), wavelengths...),
		deltaN:         make([]float64, len(wavelengths)),
		waveNumbers:    make([]float64, len(wavelengths)),
		sensorDistance: sensorDistance,
		basis:          basis,
	}
	for i, n := range refractiveIdcs {
		hm.deltaN[i] = n - 1
		hm.waveNumbers[i] = twoPi / wavelengths[i]
	}

	if basis == nil {
		hm.SqrtHeight = hm.fresnelInit(midIndex(len(wavelengths)))
	} else {
		hm.Coeffs = make([]float64, basis.K)
		for k, v := range initCoeffs {
			if k < 0 || k >= basis.K {
				return nil, fmt.Errorf("optics: initial coefficient index %d outside basis of %d terms", k, basis.K)
			}
			hm.Coeffs[k] = v
		}
	}
	return hm, nil
}

// midIndex picks the middle (green) wavelength index.
func midIndex(n int) int { return n / 2 }

// FreeForm reports whether the free-form representation is active.
func (hm *HeightMap) FreeForm() bool { return hm.basis == nil }

// fresnelInit derives the starting sqrt-height field from an ideal Fresnel
// lens phase for wavelength idx, a physically sensible point to begin
// gradient descent from.
func (hm *HeightMap) fresnelInit(idx int) []float64 {
	phase := hm.FresnelLensPhase(idx)
	height := hm.PhaseToHeight(phase, idx)
	for i, h := range height {
		height[i] = math.Sqrt(h)
	}
	return height
}

// FresnelLensPhase returns the ideal thin-lens phase -k*r^2/(2*d) for
// wavelength idx, wrapped into [0, 2*pi).
func (hm *HeightMap) FresnelLensPhase(idx int) []float64 {
	k := hm.waveNumbers[idx]
	r2 := hm.grid.RadiusSq()
	phase := make([]float64, len(r2))
	for i := range phase {
		phase[i] = wrapPhase(-k * r2[i] / (2 * hm.sensorDistance))
	}
	return phase
}

// Height returns the current physical height field in meters. For the
// free-form representation this is the square of the stored parameter and is
// therefore never negative; for the Zernike representation it is derived from
// the coefficient expansion at the first wavelength.
func (hm *HeightMap) Height() []float64 {
	if hm.basis == nil {
		h := make([]float64, len(hm.SqrtHeight))
		for i, s := range hm.SqrtHeight {
			h[i] = s * s
		}
		return h
	}
	return hm.HeightFromZernike()
}

// HeightFromZernike converts the Zernike phase expansion to a height field
// using the first wavelength's refractive contrast.
func (hm *HeightMap) HeightFromZernike() []float64 {
	phi := hm.zernikePhase()
	scale := hm.wavelengths[0] / (twoPi * hm.deltaN[0])
	for i := range phi {
		phi[i] *= scale
	}
	return phi
}

// zernikePhase returns 2*pi * sum_k coeff_k * basis_k.
func (hm *HeightMap) zernikePhase() []float64 {
	n := hm.grid.Width * hm.grid.Height
	phi := make([]float64, n)
	for k, c := range hm.Coeffs {
		if c == 0 {
			continue
		}
		plane := hm.basis.Plane(k)
		for i := range phi {
			phi[i] += c * plane[i]
		}
	}
	for i := range phi {
		phi[i] *= twoPi
	}
	return phi
}

// PhaseProfile returns the complex transmission exp(i*phi) of the element
// with one channel per wavelength. For the free-form representation phi is
// waveNumber * deltaN * height per wavelength; heightOverride, when non-nil,
// replaces the internal height field (this is how non-learned baseline
// profiles are evaluated). The Zernike representation ignores wavelength
// dispersion, applying the same phase to every channel, and does not accept
// an override.
func (hm *HeightMap) PhaseProfile(heightOverride []float64) (*field.Cmplx, error) {
	w, h := hm.grid.Width, hm.grid.Height
	out := field.NewCmplx(w, h, len(hm.wavelengths))

	if hm.basis != nil {
		if heightOverride != nil {
			return nil, ErrNotFreeForm
		}
		phi := hm.zernikePhase()
		for c := 0; c < out.Channels; c++ {
			plane := out.Plane(c)
			for i, p := range phi {
				plane[i] = expI(p)
			}
		}
		return out, nil
	}

	height := heightOverride
	if height == nil {
		height = hm.Height()
	} else if len(height) != w*h {
		return nil, fmt.Errorf("optics: height override has %d elements, want %d", len(height), w*h)
	}
	for c := 0; c < out.Channels; c++ {
		scale := hm.waveNumbers[c] * hm.deltaN[c]
		plane := out.Plane(c)
		for i, hv := range height {
			plane[i] = expI(scale * hv)
		}
	}
	return out, nil
}

// PhaseToHeight converts a phase field for wavelength idx into a physical
// height field: phi is wrapped into [0, 2*pi) first, since height is defined
// only up to a full-wave phase cycle, then divided by k*deltaN.
func (hm *HeightMap) PhaseToHeight(phi []float64, idx int) []float64 {
	k := hm.waveNumbers[idx]
	dn := hm.deltaN[idx]
	height := make([]float64, len(phi))
	for i, p := range phi {
		height[i] = wrapPhase(p) / k / dn
	}
	return height
}

// wrapPhase reduces p modulo 2*pi into [0, 2*pi).
func wrapPhase(p float64) float64 {
	p = math.Mod(p, twoPi)
	if p < 0 {
		p += twoPi
	}
	return p
}

func expI(p float64) complex128 {
	s, c := math.Sincos(p)
	return complex(c, s)
}
