package solver

import (
	"fmt"

	"github.com/proxopt/proxopt/ckpt"
	"github.com/proxopt/proxopt/field"
)

// Denoiser is the opaque learned-prior contract: given an image and a noise
// level it returns a denoised image of the same shape. Implementations may
// carry their own parameters; the solvers never look inside.
type Denoiser interface {
	Denoise(x *field.Real, sigma float64) *field.Real
}

// Prior is the step-aware form used inside the iteration, allowing unrolled
// priors whose parameters vary per solver step.
type Prior interface {
	Step(x *field.Real, sigma float64, step int) *field.Real
}

type denoiserPrior struct{ d Denoiser }

// PriorFromDenoiser adapts a plain denoiser to the Prior contract, ignoring
// the step index.
func PriorFromDenoiser(d Denoiser) Prior { return denoiserPrior{d} }

func (p denoiserPrior) Step(x *field.Real, sigma float64, _ int) *field.Real {
	return p.d.Denoise(x, sigma)
}

// BlendPrior is an unrolled prior with one learned parameter per step: the
// blend weight between the wrapped denoiser's output and the identity,
//
//	z_t = w_t * denoise(x, sigma_t) + (1 - w_t) * x.
//
// Weights are restored from a checkpoint alongside the degradation operator.
type BlendPrior struct {
	Denoiser Denoiser
	Weights  []float64
}

// NewBlendPrior starts with unit weights (pure denoiser output) for each step.
func NewBlendPrior(d Denoiser, steps int) (*BlendPrior, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("solver: prior needs at least one step, got %d", steps)
	}
	w := make([]float64, steps)
	for i := range w {
		w[i] = 1
	}
	return &BlendPrior{Denoiser: d, Weights: w}, nil
}

// LoadFrom restores the step weights from checkpoint keys
// "<prefix>.step<i>.weight". All keys are verified before any weight changes.
func (p *BlendPrior) LoadFrom(ck *ckpt.Checkpoint, prefix string) error {
	keys := make([]string, len(p.Weights))
	for i := range keys {
		keys[i] = fmt.Sprintf("%s.step%d.weight", prefix, i)
	}
	if err := ck.Require(keys...); err != nil {
		return err
	}
	loaded := make([]float64, len(keys))
	for i, key := range keys {
		t, err := ck.Get(key, 1)
		if err != nil {
			return err
		}
		loaded[i] = t.Data[0]
	}
	p.Weights = loaded
	return nil
}

// Step applies the blended proximal update for the given iteration.
func (p *BlendPrior) Step(x *field.Real, sigma float64, step int) *field.Real {
	if step < 0 || step >= len(p.Weights) {
		panic(fmt.Sprintf("step %d outside [0,%d)", step, len(p.Weights)))
	}
	w := p.Weights[step]
	z := p.Denoiser.Denoise(x, sigma)
	z.Scale(w)
	z.AddScaled(1-w, x)
	return z
}
