package linop

import (
	"math/rand"
	"testing"

	"github.com/proxopt/proxopt/field"
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

// randomPSF returns a non-negative kernel normalized to unit sum.
func randomPSF(w, h, c int, rng *rand.Rand) *field.Real {
	f := field.NewReal(w, h, c)
	for i := range f.Elems {
		f.Elems[i] = rng.Float64()
	}
	f.Scale(1 / f.Sum())
	return f
}

func deltaPSF(w, h, c int) *field.Real {
	f := field.NewReal(w, h, c)
	for ch := 0; ch < c; ch++ {
		f.Set(ch, h/2, w/2, 1)
	}
	return f
}

func TestNewPSFConvRejectsOversizedKernel(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	_, err := NewPSFConv(randomPSF(9, 9, 1, rng), 8, 8, Circular)
	assert.Error(t, err)
}

func TestDeltaPSFIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := randomField(16, 12, 3, rng)

	for _, boundary := range []Boundary{Circular, Linear} {
		op, err := NewPSFConv(deltaPSF(5, 5, 3), 16, 12, boundary)
		require.NoError(t, err)
		out := op.Forward(img)
		for i := range img.Elems {
			assert.InDelta(t, img.Elems[i], out.Elems[i], 1e-10)
		}
		back := op.Adjoint(img)
		for i := range img.Elems {
			assert.InDelta(t, img.Elems[i], back.Elems[i], 1e-10)
		}
	}
}

func TestAdjointConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	psf := randomPSF(7, 7, 3, rng)

	for _, boundary := range []Boundary{Circular, Linear} {
		op, err := NewPSFConv(psf, 20, 14, boundary)
		require.NoError(t, err)
		rel := DotTest(op, 20, 14, 3, rng)
		assert.Less(t, rel, 1e-9, "boundary %d", boundary)
	}
}

func TestConvolutionPreservesMeanUnderCircularBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	img := randomField(16, 16, 1, rng)
	psf := randomPSF(5, 5, 1, rng)

	op, err := NewPSFConv(psf, 16, 16, Circular)
	require.NoError(t, err)
	out := op.Forward(img)
	// A unit-sum kernel with wraparound moves energy, never loses it.
	assert.InDelta(t, img.Sum(), out.Sum(), 1e-9)
}

func TestSolveLSOptimality(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	psf := randomPSF(5, 5, 2, rng)
	op, err := NewPSFConv(psf, 12, 12, Circular)
	require.NoError(t, err)

	y := randomField(12, 12, 2, rng)
	v := randomField(12, 12, 2, rng)
	const rho = 0.3

	x := op.SolveLS(y, v, rho)

	// Gradient of ||Ax-y||^2 + rho*||x-v||^2 vanishes at the minimizer:
	// A'(Ax - y) + rho*(x - v) == 0.
	r := op.Forward(x)
	r.Sub(y)
	grad := op.Adjoint(r)
	xv := x.Clone()
	xv.Sub(v)
	grad.AddScaled(rho, xv)
	assert.Less(t, grad.Norm2(), 1e-8)
}

func TestSolveLSRequiresCircular(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	psf := randomPSF(3, 3, 1, rng)

	op, err := NewPSFConv(psf, 8, 8, Linear)
	require.NoError(t, err)
	assert.False(t, op.CanSolveLS())
	assert.Panics(t, func() {
		op.SolveLS(randomField(8, 8, 1, rng), randomField(8, 8, 1, rng), 1)
	})

	circ, err := NewPSFConv(psf, 8, 8, Circular)
	require.NoError(t, err)
	assert.True(t, circ.CanSolveLS())
}

func TestConvolveMatchesOperator(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	img := randomField(10, 10, 3, rng)
	psf := randomPSF(3, 3, 3, rng)

	op, err := NewPSFConv(psf, 10, 10, Linear)
	require.NoError(t, err)
	want := op.Forward(img)
	got := Convolve(img, psf, false)
	for i := range want.Elems {
		assert.InDelta(t, want.Elems[i], got.Elems[i], 1e-12)
	}
}

func TestForwardShapeMismatchPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	op, err := NewPSFConv(randomPSF(3, 3, 2, rng), 8, 8, Circular)
	require.NoError(t, err)
	assert.Panics(t, func() { op.Forward(randomField(8, 8, 1, rng)) })
	assert.Panics(t, func() { op.Forward(randomField(9, 8, 2, rng)) })
}
