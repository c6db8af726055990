package solver

import (
	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/linop"
)

// PGD is proximal gradient descent over a step-indexed operator: each
// iteration takes a gradient step on the data term with step size rho_t,
// then applies the prior at noise level sigma_t. This is the solver used
// with the learnable degradation operator, which is free to change behavior
// per iteration.
type PGD struct {
	Op    linop.Stepped
	Prior Prior

	// Residual, when set, adds the observation back onto the solution,
	// the post-processing the deraining formulation uses
	// (output = solver output + input).
	Residual bool
}

// NewPGD builds a proximal-gradient solver.
func NewPGD(op linop.Stepped, prior Prior) *PGD { return &PGD{Op: op, Prior: prior} }

// Solve runs exactly Schedule.Len() iterations from x0 against observation y.
func (s *PGD) Solve(y, x0 *field.Real, sched Schedule) (*field.Real, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	x := x0.Clone()
	for t := 0; t < sched.Len(); t++ {
		// gradient of 0.5*||A_t(x) - y||^2
		r := s.Op.ForwardStep(x, t)
		r.Sub(y)
		grad := s.Op.AdjointStep(r, t)

		x.AddScaled(-sched.Rhos[t], grad)
		x = s.Prior.Step(x, sched.Sigmas[t], t)
	}
	if s.Residual {
		x.Add(y)
	}
	return x, nil
}
