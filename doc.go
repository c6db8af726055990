// Package proxopt is a differentiable-optics simulation and reconstruction
// toolkit: it models a diffractive optical element as a height map, simulates
// Fresnel propagation to obtain a point spread function, synthesizes sensor
// captures by convolution, and recovers images with proximal (ADMM/PGD)
// solvers whose prior is a plug-in denoiser.
//
// The code lives in subpackages:
//
//   - field:   dense real/complex multi-channel rasters
//   - fourier: 2D FFTs and transfer-function helpers
//   - optics:  grid, aperture, height map, Fresnel propagator, collimator
//   - linop:   forward/adjoint operators (PSF convolution, learnable degradation)
//   - solver:  ADMM and PGD with annealed rho/sigma schedules
//   - denoise: denoiser implementations satisfying the solver contract
//   - ckpt:    parameter bundles and NumPy array ingestion
//   - config:  JSON5 system-configuration files
//   - imgio:   PNG conversion, resampling, noise synthesis, PSNR
//   - render:  heatmap and profile figures of the optical state
package proxopt
