package optics

import (
	"errors"
	"fmt"
)

// SystemConfig bundles everything needed to build a Collimator. It is read
// once at construction; changing a live system requires rebuilding it.
type SystemConfig struct {
	// SensorDistance is the DOE-to-sensor separation in meters.
	SensorDistance float64
	// Wavelengths to model, in meters, ordered (R, G, B) by convention.
	Wavelengths []float64
	// RefractiveIdcs of the phase plate, paired 1:1 with Wavelengths.
	RefractiveIdcs []float64
	// PatchSize is the sensor-side resolution of the PSF and of captured patches.
	PatchSize int
	// SampleInterval is the size of one simulated wavefront sample in meters.
	SampleInterval float64
	// WaveWidth, WaveHeight give the resolution of the simulated wavefront.
	// Both must be integer multiples of PatchSize.
	WaveWidth, WaveHeight int
	// Circular selects wrap-around boundary handling for capture synthesis.
	Circular bool
	// ZernikeVolume, when non-nil, switches the height map to the Zernike
	// representation over this basis.
	ZernikeVolume *ZernikeVolume
	// InitialZernikeCoeffs seeds nonzero Zernike coefficients by term index.
	InitialZernikeCoeffs map[int]float64
}

// DefaultSystemConfig mirrors the reference DOE setup: a 15 mm sensor
// distance, RGB design wavelengths on a 1496x1496 wavefront sampled at 2 um,
// captured at 748x748.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		SensorDistance: 15e-3,
		Wavelengths:    []float64{460e-9, 550e-9, 640e-9},
		RefractiveIdcs: []float64{1.4648, 1.4599, 1.4568},
		PatchSize:      748,
		SampleInterval: 2e-6,
		WaveWidth:      1496,
		WaveHeight:     1496,
		Circular:       true,
	}
}

// Validate checks the configuration for construction-time errors.
func (c SystemConfig) Validate() error {
	if len(c.Wavelengths) == 0 {
		return errors.New("optics: config has no wavelengths")
	}
	if len(c.Wavelengths) != len(c.RefractiveIdcs) {
		return fmt.Errorf("optics: config has %d wavelengths but %d refractive indices",
			len(c.Wavelengths), len(c.RefractiveIdcs))
	}
	for i, w := range c.Wavelengths {
		if w <= 0 {
			return fmt.Errorf("optics: wavelength %d is %g, must be positive", i, w)
		}
	}
	if c.SensorDistance <= 0 {
		return fmt.Errorf("optics: sensor distance must be positive, got %g", c.SensorDistance)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("optics: sample interval must be positive, got %g", c.SampleInterval)
	}
	if c.PatchSize <= 0 {
		return fmt.Errorf("optics: patch size must be positive, got %d", c.PatchSize)
	}
	if c.WaveWidth <= 0 || c.WaveHeight <= 0 {
		return fmt.Errorf("optics: wave resolution must be positive, got %dx%d", c.WaveHeight, c.WaveWidth)
	}
	if c.WaveWidth%c.PatchSize != 0 || c.WaveHeight%c.PatchSize != 0 {
		return fmt.Errorf("optics: wave resolution %dx%d is not a multiple of patch size %d",
			c.WaveHeight, c.WaveWidth, c.PatchSize)
	}
	if v := c.ZernikeVolume; v != nil && (v.Width != c.WaveWidth || v.Height != c.WaveHeight) {
		return fmt.Errorf("optics: zernike volume is %dx%d but wave resolution is %dx%d",
			v.Height, v.Width, c.WaveHeight, c.WaveWidth)
	}
	return nil
}
