package solver

import (
	"fmt"

	"github.com/jvlmdr/go-cg/cg"

	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/linop"
)

// ADMM alternates a data-consistency step against the forward operator with
// a denoising prior step and a dual update, for exactly Schedule.Len()
// iterations.
//
// When the operator can solve its regularized least-squares subproblem in
// closed form (circular PSF convolution), that form is used; otherwise the
// normal equations (A'A + rho*I)x = A'y + rho*v are solved by conjugate
// gradient.
//
// The solver does not validate the operator's adjoint consistency or the
// PSF's normalization; inconsistent inputs degrade the reconstruction
// silently. Run linop.DotTest beforehand if that matters.
type ADMM struct {
	Op    linop.Operator
	Prior Prior

	// Conjugate-gradient fallback controls.
	CGTol  float64
	CGIter int
}

// NewADMM builds a solver with default conjugate-gradient settings.
func NewADMM(op linop.Operator, prior Prior) *ADMM {
	return &ADMM{Op: op, Prior: prior, CGTol: 1e-8, CGIter: 100}
}

// Solve reconstructs an image from observation y starting at x0. The
// schedule fixes the iteration count and per-iteration hyperparameters.
func (s *ADMM) Solve(y, x0 *field.Real, sched Schedule) (*field.Real, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	x := x0.Clone()
	z := x0.Clone()
	u := field.NewReal(x0.Width, x0.Height, x0.Channels)

	for t := 0; t < sched.Len(); t++ {
		rho, sigma := sched.Rhos[t], sched.Sigmas[t]

		// data consistency: x = argmin ||A(x)-y||^2 + rho*||x - (z-u)||^2
		v := z.Clone()
		v.Sub(u)
		var err error
		x, err = s.leastSquares(y, v, rho)
		if err != nil {
			return nil, fmt.Errorf("solver: admm iteration %d: %w", t, err)
		}

		// prior: z = prox_sigma(x + u)
		xu := x.Clone()
		xu.Add(u)
		z = s.Prior.Step(xu, sigma, t)

		// dual: u = u + x - z
		u.Add(x)
		u.Sub(z)
	}
	return x, nil
}

func (s *ADMM) leastSquares(y, v *field.Real, rho float64) (*field.Real, error) {
	if ls, ok := s.Op.(linop.LeastSquaresSolver); ok && ls.CanSolveLS() {
		return ls.SolveLS(y, v, rho), nil
	}

	// conjugate gradient on the normal equations
	b := s.Op.Adjoint(y)
	b.AddScaled(rho, v)
	a := func(xe []float64) []float64 {
		f := &field.Real{Elems: xe, Width: v.Width, Height: v.Height, Channels: v.Channels}
		g := s.Op.Adjoint(s.Op.Forward(f))
		g.AddScaled(rho, f)
		return g.Elems
	}
	x0 := v.Clone()
	elems, err := cg.Solve(a, b.Elems, x0.Elems, s.CGTol, s.CGIter, nil)
	if err != nil {
		return nil, err
	}
	return &field.Real{Elems: elems, Width: v.Width, Height: v.Height, Channels: v.Channels}, nil
}
