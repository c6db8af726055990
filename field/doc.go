// Package field provides dense multi-channel rasters for wave-optics
// simulation: real-valued planes for images, height maps and point spread
// functions, and complex-valued planes for wavefronts.
//
// A raster stores its channels as contiguous row-major planes in a single
// flat slice, so per-channel views can be handed directly to FFT and BLAS
// style routines without copying. Index order is (channel, row, column).
package field
