package solver

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/proxopt/proxopt/ckpt"
	"github.com/proxopt/proxopt/denoise"
	"github.com/proxopt/proxopt/field"
	"github.com/proxopt/proxopt/imgio"
	"github.com/proxopt/proxopt/linop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSchedule(rho, sigma float64, iters int) Schedule {
	s := Schedule{Rhos: make([]float64, iters), Sigmas: make([]float64, iters)}
	for i := range s.Rhos {
		s.Rhos[i] = rho
		s.Sigmas[i] = sigma
	}
	return s
}

func TestPGDContractsTowardObservation(t *testing.T) {
	// With an identity operator and identity prior each iteration is
	// x <- x - rho*(x - y), a contraction toward y with factor (1-rho).
	y := stripes(10, 10, 1)
	x0 := field.NewReal(10, 10, 1)

	op, err := linop.NewLearnableDegOp(6, 1, 3)
	require.NoError(t, err)

	s := NewPGD(op, PriorFromDenoiser(denoise.Identity{}))
	out, err := s.Solve(y, x0, flatSchedule(0.5, 0.01, 6))
	require.NoError(t, err)

	assert.Less(t, distance(out, y), 0.02*distance(x0, y))
	for i := range y.Elems {
		assert.InDelta(t, y.Elems[i], out.Elems[i], 0.02)
	}
}

func TestPGDResidualAddsObservationBack(t *testing.T) {
	y := stripes(8, 8, 1)
	x0 := field.NewReal(8, 8, 1)

	op, err := linop.NewLearnableDegOp(3, 1, 3)
	require.NoError(t, err)
	sched := flatSchedule(0.3, 0.01, 3)

	plain, err := NewPGD(op, PriorFromDenoiser(denoise.Identity{})).Solve(y, x0, sched)
	require.NoError(t, err)

	res := NewPGD(op, PriorFromDenoiser(denoise.Identity{}))
	res.Residual = true
	withRes, err := res.Solve(y, x0, sched)
	require.NoError(t, err)

	for i := range plain.Elems {
		assert.InDelta(t, plain.Elems[i]+y.Elems[i], withRes.Elems[i], 1e-12)
	}
}

func TestPGDUsesStepKernels(t *testing.T) {
	// One step with a halved delta kernel: x' = x - rho*A'(Ax - y)
	// with A = 0.5*I, starting from zero gives x' = 0.5*rho*y.
	y := stripes(8, 8, 1)
	x0 := field.NewReal(8, 8, 1)

	op, err := linop.NewLearnableDegOp(1, 1, 3)
	require.NoError(t, err)
	half := make([]float64, 9)
	half[4] = 0.5
	require.NoError(t, op.SetKernel(0, half))

	out, err := NewPGD(op, PriorFromDenoiser(denoise.Identity{})).Solve(y, x0, flatSchedule(0.8, 0.01, 1))
	require.NoError(t, err)
	for i := range y.Elems {
		assert.InDelta(t, 0.8*0.5*y.Elems[i], out.Elems[i], 1e-12)
	}
}

// derainPipeline assembles the unrolled restoration stack the way a restored
// parameter bundle drives it: per-step degradation kernels, per-step blend
// weights and a penalty vector, all from one checkpoint.
func derainPipeline(t *testing.T, ck *ckpt.Checkpoint, steps int) (*PGD, Schedule) {
	t.Helper()

	op, err := linop.NewLearnableDegOp(steps, 3, 3)
	require.NoError(t, err)
	require.NoError(t, op.LoadFrom(ck, "deg"))

	prior, err := NewBlendPrior(denoise.Gaussian{}, steps)
	require.NoError(t, err)
	require.NoError(t, prior.LoadFrom(ck, "prior"))

	rhos, err := ck.Vector("rhos")
	require.NoError(t, err)
	require.Len(t, rhos, steps)

	sigmas := make([]float64, steps)
	for i := range sigmas {
		sigmas[i] = 7.65 / 255
	}

	s := NewPGD(op, prior)
	s.Residual = true
	return s, Schedule{Rhos: rhos, Sigmas: sigmas}
}

func syntheticDerainCheckpoint(t *testing.T, steps int) *ckpt.Checkpoint {
	t.Helper()
	ck := ckpt.New()
	kernel := make([]float64, 3*9)
	for c := 0; c < 3; c++ {
		// Mild vertical smear per channel, the shape rain streaks take.
		kernel[c*9+1] = 0.2
		kernel[c*9+4] = 0.6
		kernel[c*9+7] = 0.2
	}
	for s := 0; s < steps; s++ {
		require.NoError(t, ck.Put(fmt.Sprintf("deg.step%d.kernel", s), []int{3, 3, 3}, kernel))
		require.NoError(t, ck.Put(fmt.Sprintf("prior.step%d.weight", s), []int{1}, []float64{0.5}))
	}
	rhos := make([]float64, steps)
	for i := range rhos {
		rhos[i] = 0.4
	}
	require.NoError(t, ck.Put("rhos", []int{steps}, rhos))
	return ck
}

func TestDerainPipelineRunsAndIsDeterministic(t *testing.T) {
	const steps = 7
	ck := syntheticDerainCheckpoint(t, steps)
	s, sched := derainPipeline(t, ck, steps)
	require.Equal(t, steps, sched.Len())

	rainy := stripes(16, 16, 3)
	x0 := field.NewReal(16, 16, 3)

	a, err := s.Solve(rainy, x0, sched)
	require.NoError(t, err)
	b, err := s.Solve(rainy, x0, sched)
	require.NoError(t, err)
	assert.Equal(t, a.Elems, b.Elems)

	require.True(t, a.SameShape(rainy))
	for _, v := range a.Elems {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

// TestDerainReferenceBundle replays a trained bundle when one is available
// locally; the quality bar matches the published result for that bundle.
func TestDerainReferenceBundle(t *testing.T) {
	path := filepath.Join("testdata", "derain.ckpt")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("no reference bundle at %s", path)
	}
	ck, err := ckpt.Load(path)
	require.NoError(t, err)

	const steps = 7
	s, sched := derainPipeline(t, ck, steps)

	rainy, err := imgio.Load(filepath.Join("testdata", "rainy.png"))
	require.NoError(t, err)
	clean, err := imgio.Load(filepath.Join("testdata", "clean.png"))
	require.NoError(t, err)

	out, err := s.Solve(rainy, field.NewReal(rainy.Width, rainy.Height, rainy.Channels), sched)
	require.NoError(t, err)
	out.Clamp(0, 1)

	assert.Greater(t, imgio.PSNR(out, clean), 35.8)
}
