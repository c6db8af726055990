// Package optics models a diffractive optical element (DOE) and the wave
// propagation from it to a sensor. A height map (free-form or a Zernike
// coefficient expansion) induces a per-wavelength phase profile; Fresnel
// propagation of the masked wavefront to the sensor plane yields a point
// spread function, which is then used to synthesize captured images.
//
// All quantities are SI: wavelengths, sample intervals and distances in
// meters, heights in meters, phases in radians.
package optics
