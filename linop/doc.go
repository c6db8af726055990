// Package linop exposes image degradation models as linear operators with
// matching forward and adjoint evaluation, the contract the proximal solvers
// rely on for their least-squares data terms. The optical path is a PSF
// convolution with selectable boundary handling; the deraining path is a
// learnable, step-indexed convolution bank restored from a checkpoint.
package linop
