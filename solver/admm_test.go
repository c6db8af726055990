package solver

import (
	"math"
	"math/rand"
	"testing"

	"github.com/proxopt/proxopt/denoise"
	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/linop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomField(w, h, c int, rng *rand.Rand) *field.Real {
	f := field.NewReal(w, h, c)
	for i := range f.Elems {
		f.Elems[i] = rng.NormFloat64()
	}
	return f
}

// boxPSF is a normalized size x size box blur with c channels.
func boxPSF(size, c int) *field.Real {
	f := field.NewReal(size, size, c)
	v := 1 / float64(size*size)
	for i := range f.Elems {
		f.Elems[i] = v
	}
	return f
}

func deltaPSF(size, c int) *field.Real {
	f := field.NewReal(size, size, c)
	for ch := 0; ch < c; ch++ {
		f.Set(ch, size/2, size/2, 1)
	}
	return f
}

// stripes is a smooth deterministic test scene on [0,1].
func stripes(w, h, c int) *field.Real {
	f := field.NewReal(w, h, c)
	for ch := 0; ch < c; ch++ {
		p := f.Plane(ch)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p[y*w+x] = 0.5 + 0.4*math.Sin(2*math.Pi*(float64(x)+2*float64(ch))/float64(w))*
					math.Cos(2*math.Pi*float64(y)/float64(h))
			}
		}
	}
	return f
}

func TestADMMFixedPointWithIdentityOperator(t *testing.T) {
	y := stripes(16, 16, 1)
	op, err := linop.NewPSFConv(deltaPSF(3, 1), 16, 16, linop.Circular)
	require.NoError(t, err)

	sched, err := LogDescent(30, 5, 5)
	require.NoError(t, err)

	s := NewADMM(op, PriorFromDenoiser(denoise.Identity{}))
	out, err := s.Solve(y, y.Clone(), sched)
	require.NoError(t, err)
	for i := range y.Elems {
		assert.InDelta(t, y.Elems[i], out.Elems[i], 1e-8)
	}
}

func TestADMMDeblursCircularObservation(t *testing.T) {
	gt := stripes(16, 16, 1)
	op, err := linop.NewPSFConv(boxPSF(3, 1), 16, 16, linop.Circular)
	require.NoError(t, err)

	y := op.Forward(gt)
	// Deterministic measurement perturbation, small against the signal.
	rng := rand.New(rand.NewSource(21))
	for i := range y.Elems {
		y.Elems[i] += 1e-4 * rng.NormFloat64()
	}

	sched, err := LogDescent(30, 3, 8)
	require.NoError(t, err)

	s := NewADMM(op, PriorFromDenoiser(denoise.Identity{}))
	out, err := s.Solve(y, y.Clone(), sched)
	require.NoError(t, err)

	errBefore := distance(y, gt)
	errAfter := distance(out, gt)
	assert.Less(t, errAfter, errBefore, "reconstruction should beat the blurred observation")
}

func TestADMMDeterministic(t *testing.T) {
	gt := stripes(12, 12, 3)
	op, err := linop.NewPSFConv(boxPSF(3, 3), 12, 12, linop.Circular)
	require.NoError(t, err)
	y := op.Forward(gt)

	sched, err := LogDescent(25, 5, 4)
	require.NoError(t, err)

	s := NewADMM(op, PriorFromDenoiser(denoise.Gaussian{}))
	a, err := s.Solve(y, y.Clone(), sched)
	require.NoError(t, err)
	b, err := s.Solve(y, y.Clone(), sched)
	require.NoError(t, err)
	assert.Equal(t, a.Elems, b.Elems)
}

func TestADMMRejectsInvalidSchedule(t *testing.T) {
	op, err := linop.NewPSFConv(deltaPSF(3, 1), 8, 8, linop.Circular)
	require.NoError(t, err)
	s := NewADMM(op, PriorFromDenoiser(denoise.Identity{}))

	y := stripes(8, 8, 1)
	_, err = s.Solve(y, y.Clone(), Schedule{})
	assert.Error(t, err)
}

func TestLeastSquaresConjugateGradientPath(t *testing.T) {
	// The linear boundary has no closed form, forcing the CG fallback on the
	// normal equations.
	rng := rand.New(rand.NewSource(22))
	op, err := linop.NewPSFConv(boxPSF(3, 1), 10, 10, linop.Linear)
	require.NoError(t, err)

	y := randomField(10, 10, 1, rng)
	v := randomField(10, 10, 1, rng)
	const rho = 0.4

	s := NewADMM(op, PriorFromDenoiser(denoise.Identity{}))
	x, err := s.leastSquares(y, v, rho)
	require.NoError(t, err)

	// Check first-order optimality: A'(Ax-y) + rho*(x-v) ~ 0.
	r := op.Forward(x)
	r.Sub(y)
	grad := op.Adjoint(r)
	xv := x.Clone()
	xv.Sub(v)
	grad.AddScaled(rho, xv)
	assert.Less(t, grad.Norm2(), 1e-5)
}

func TestADMMLinearBoundaryEndToEnd(t *testing.T) {
	gt := stripes(12, 12, 1)
	op, err := linop.NewPSFConv(boxPSF(3, 1), 12, 12, linop.Linear)
	require.NoError(t, err)
	y := op.Forward(gt)

	sched, err := LogDescent(20, 4, 4)
	require.NoError(t, err)

	s := NewADMM(op, PriorFromDenoiser(denoise.Identity{}))
	out, err := s.Solve(y, y.Clone(), sched)
	require.NoError(t, err)
	assert.Less(t, distance(out, gt), distance(y, gt))
}

func distance(a, b *field.Real) float64 {
	d := a.Clone()
	d.Sub(b)
	return d.Norm2()
}
