package solver

import (
	"fmt"
	"math"
)

// Schedule supplies the per-iteration hyperparameters of a solve: the ADMM
// penalty rhos and the denoiser noise levels sigmas, one entry per iteration.
// A schedule is generated once and treated as immutable by the solvers.
type Schedule struct {
	Rhos   []float64
	Sigmas []float64
}

// Len returns the number of iterations the schedule covers.
func (s Schedule) Len() int { return len(s.Rhos) }

// Validate checks the two sequences pair up and stay positive.
func (s Schedule) Validate() error {
	if len(s.Rhos) == 0 {
		return fmt.Errorf("solver: empty schedule")
	}
	if len(s.Rhos) != len(s.Sigmas) {
		return fmt.Errorf("solver: schedule has %d rhos but %d sigmas", len(s.Rhos), len(s.Sigmas))
	}
	for i := range s.Rhos {
		if s.Rhos[i] <= 0 || s.Sigmas[i] <= 0 {
			return fmt.Errorf("solver: schedule entry %d is not positive (rho=%g, sigma=%g)",
				i, s.Rhos[i], s.Sigmas[i])
		}
	}
	return nil
}

type descent struct {
	lambda   float64
	eps      float64
	obsSigma float64 // observed noise level; defaults to the terminal sigma
}

// DescentOption adjusts the penalty relation of LogDescent.
type DescentOption func(*descent)

// WithLambda sets the regularization weight tying penalty to noise level.
func WithLambda(lam float64) DescentOption { return func(d *descent) { d.lambda = lam } }

// WithEps sets the additive floor keeping penalties strictly positive.
func WithEps(eps float64) DescentOption { return func(d *descent) { d.eps = eps } }

// WithObservedSigma sets the noise level of the observation (on the [0,1]
// intensity scale) used to scale the penalty sequence.
func WithObservedSigma(sigma float64) DescentOption { return func(d *descent) { d.obsSigma = sigma } }

// LogDescent generates the annealing schedule for iters iterations: sigmas
// descend logarithmically from sigmaStart to sigmaEnd (both on the usual
// 0..255 scale, emitted on [0,1]), and each penalty follows its noise level
// through a fixed quadratic relation
//
//	rho_t = lambda * (sigma_t / sigmaObs)^2 + eps.
//
// Both sequences are strictly decreasing whenever sigmaStart > sigmaEnd,
// which is what keeps the ADMM iteration stable.
func LogDescent(sigmaStart, sigmaEnd float64, iters int, opts ...DescentOption) (Schedule, error) {
	if iters <= 0 {
		return Schedule{}, fmt.Errorf("solver: iteration count must be positive, got %d", iters)
	}
	if sigmaEnd <= 0 || sigmaStart < sigmaEnd {
		return Schedule{}, fmt.Errorf("solver: need sigmaStart >= sigmaEnd > 0, got %g and %g",
			sigmaStart, sigmaEnd)
	}

	d := descent{lambda: 0.23, eps: 1e-6, obsSigma: sigmaEnd / 255}
	for _, opt := range opts {
		opt(&d)
	}
	if d.obsSigma <= 0 {
		return Schedule{}, fmt.Errorf("solver: observed sigma must be positive, got %g", d.obsSigma)
	}

	s := Schedule{
		Rhos:   make([]float64, iters),
		Sigmas: make([]float64, iters),
	}
	lo, hi := math.Log10(sigmaEnd), math.Log10(sigmaStart)
	for t := 0; t < iters; t++ {
		frac := 0.0
		if iters > 1 {
			frac = float64(t) / float64(iters-1)
		}
		sigma := math.Pow(10, hi+(lo-hi)*frac) / 255
		s.Sigmas[t] = sigma
		r := sigma / d.obsSigma
		s.Rhos[t] = d.lambda*r*r + d.eps
	}
	return s, nil
}
