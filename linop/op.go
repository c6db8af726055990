package linop

import (
	"math"
	"math/rand"

	"github.com/proxopt/proxopt/field"
)

// Operator is a linear map on rasters with a matching adjoint, so that
// <Forward(u), v> == <u, Adjoint(v)> up to floating-point error. Operators
// panic on shape mismatch; validation belongs at construction time.
type Operator interface {
	Forward(x *field.Real) *field.Real
	Adjoint(y *field.Real) *field.Real
}

// Stepped is an operator whose behavior may vary per solver iteration.
type Stepped interface {
	ForwardStep(x *field.Real, step int) *field.Real
	AdjointStep(y *field.Real, step int) *field.Real
}

// LeastSquaresSolver is implemented by operators that can solve
//
//	argmin_x ||A(x) - y||^2 + rho*||x - v||^2
//
// in closed form. CanSolveLS reports whether the closed form applies to the
// operator's current configuration.
type LeastSquaresSolver interface {
	CanSolveLS() bool
	SolveLS(y, v *field.Real, rho float64) *field.Real
}

type fixedStep struct{ op Operator }

// Fixed adapts a step-independent operator to the Stepped contract.
func Fixed(op Operator) Stepped { return fixedStep{op} }

func (f fixedStep) ForwardStep(x *field.Real, _ int) *field.Real { return f.op.Forward(x) }
func (f fixedStep) AdjointStep(y *field.Real, _ int) *field.Real { return f.op.Adjoint(y) }

// DotTest is the opt-in adjoint-consistency diagnostic: it draws a random
// image u of the given shape and a random v of the co-domain shape and
// returns the relative error |<Au,v> - <u,A'v>| / max(|<Au,v>|, |<u,A'v>|).
// The solvers never run this themselves; an inconsistent operator silently
// degrades reconstruction instead of failing.
func DotTest(op Operator, width, height, channels int, rng *rand.Rand) float64 {
	u := field.NewReal(width, height, channels)
	for i := range u.Elems {
		u.Elems[i] = rng.NormFloat64()
	}
	au := op.Forward(u)
	v := field.NewReal(au.Width, au.Height, au.Channels)
	for i := range v.Elems {
		v.Elems[i] = rng.NormFloat64()
	}
	lhs := field.Dot(au, v)
	rhs := field.Dot(u, op.Adjoint(v))
	scale := math.Max(math.Abs(lhs), math.Abs(rhs))
	if scale == 0 {
		return 0
	}
	return math.Abs(lhs-rhs) / scale
}
