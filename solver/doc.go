// Package solver implements proximal reconstruction of images degraded by a
// known linear operator: ADMM with a closed-form or conjugate-gradient data
// step and a plug-in denoising prior, and proximal gradient descent for
// step-indexed learnable operators. Iteration counts are fixed by the
// hyperparameter schedule; there is no early stopping, so runs over the same
// inputs are deterministic.
package solver
