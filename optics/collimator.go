package optics

import (
	"fmt"

	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/linop"
)

// Collimator composes the grid, aperture, height map and propagator into the
// full optical system: it turns the current element surface into a point
// spread function and synthesizes sensor captures from ground-truth images.
//
// The grid, aperture and input field are derived once at construction and
// shared read-only across calls; the height map parameters are the only
// mutable state and must not be updated concurrently with an in-flight call.
type Collimator struct {
	Config    SystemConfig
	Grid      *Grid
	HeightMap *HeightMap

	aperture   []float64
	propagator *FresnelPropagator
	inputField *field.Cmplx // uniform unit illumination
}

// NewCollimator validates the configuration and builds the system.
func NewCollimator(cfg SystemConfig) (*Collimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid := NewGrid(cfg.WaveWidth, cfg.WaveHeight, cfg.SampleInterval)

	hm, err := NewHeightMap(grid, cfg.Wavelengths, cfg.RefractiveIdcs, cfg.SensorDistance,
		cfg.ZernikeVolume, cfg.InitialZernikeCoeffs)
	if err != nil {
		return nil, err
	}
	prop, err := NewFresnelPropagator(cfg.WaveWidth, cfg.WaveHeight, cfg.Wavelengths,
		cfg.SensorDistance, cfg.SampleInterval)
	if err != nil {
		return nil, err
	}

	input := field.NewCmplx(cfg.WaveWidth, cfg.WaveHeight, len(cfg.Wavelengths))
	for i := range input.Elems {
		input.Elems[i] = 1
	}

	return &Collimator{
		Config:     cfg,
		Grid:       grid,
		HeightMap:  hm,
		aperture:   CircularAperture(grid),
		propagator: prop,
		inputField: input,
	}, nil
}

// PSF simulates the sensor-plane response to a point source: the phase
// profile (from the height map unless one is supplied) modulates the uniform
// input field, the aperture masks it, the field propagates to the sensor,
// and the squared magnitude is area-downsampled to the patch resolution.
//
// The result is normalized so the whole tensor sums to 1 - a single scalar
// across channels, not per channel, preserving relative channel energy.
func (c *Collimator) PSF(phase *field.Cmplx) (*field.Real, error) {
	if phase == nil {
		var err error
		phase, err = c.HeightMap.PhaseProfile(nil)
		if err != nil {
			return nil, err
		}
	}
	f := c.inputField.Clone()
	f.Mul(phase)
	f.MulReal(c.aperture)
	f = c.propagator.Propagate(f)

	psf := f.AbsSq()
	psf = areaDownsample(psf, c.Config.PatchSize, c.Config.PatchSize)
	psf.Scale(1 / psf.Sum())
	return psf, nil
}

// Capture convolves an image with the system's current PSF, simulating a
// sensor capture. circular selects wrap-around boundary handling; otherwise
// the convolution is linear with zero padding. The PSF used is returned
// alongside the capture.
func (c *Collimator) Capture(img *field.Real, phase *field.Cmplx, circular bool) (*field.Real, *field.Real, error) {
	psf, err := c.PSF(phase)
	if err != nil {
		return nil, nil, err
	}
	out := linop.Convolve(img, psf, circular)
	return out, psf, nil
}

// areaDownsample box-averages a raster down to target x target per channel.
func areaDownsample(f *field.Real, targetW, targetH int) *field.Real {
	fx := f.Width / targetW
	fy := f.Height / targetH
	if fx*targetW != f.Width || fy*targetH != f.Height {
		panic(fmt.Sprintf("cannot downsample %dx%d to %dx%d evenly", f.Height, f.Width, targetH, targetW))
	}
	out := field.NewReal(targetW, targetH, f.Channels)
	inv := 1 / float64(fx*fy)
	for c := 0; c < f.Channels; c++ {
		src := f.Plane(c)
		dst := out.Plane(c)
		for y := 0; y < targetH; y++ {
			for x := 0; x < targetW; x++ {
				sum := 0.0
				for dy := 0; dy < fy; dy++ {
					row := (y*fy + dy) * f.Width
					for dx := 0; dx < fx; dx++ {
						sum += src[row+x*fx+dx]
					}
				}
				dst[y*targetW+x] = sum * inv
			}
		}
	}
	return out
}

// BaselineProfile computes the non-learned reference phase profile: the ideal
// Fresnel lens phase for the middle wavelength, wrapped modulo 2*pi, converted
// to a physical height field and back through the phase model. Only defined
// for the free-form representation.
func BaselineProfile(c *Collimator) (*field.Cmplx, error) {
	hm := c.HeightMap
	if !hm.FreeForm() {
		return nil, ErrNotFreeForm
	}
	mid := midIndex(len(c.Config.Wavelengths))
	phase := hm.FresnelLensPhase(mid)
	height := hm.PhaseToHeight(phase, mid)
	return hm.PhaseProfile(height)
}
