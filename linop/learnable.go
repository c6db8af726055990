package linop

import (
	"fmt"

	"github.com/proxopt/proxopt/ckpt"
	"github.com/proxopt/proxopt/field"
)

// LearnableDegOp is a step-indexed degradation operator for the deraining
// pipeline: one learned per-channel convolution kernel per solver iteration,
// restored from a checkpoint. Forward is a zero-padded same-size convolution
// with the step's kernel; Adjoint is the matching correlation, so the pair
// satisfies the solver's adjoint contract at every step.
type LearnableDegOp struct {
	Steps    int
	Channels int
	KSize    int // kernel side length, odd

	kernels [][]float64 // per step: Channels * KSize * KSize
}

// NewLearnableDegOp allocates an operator with identity (delta) kernels for
// every step; parameters are expected to be restored via LoadFrom.
func NewLearnableDegOp(steps, channels, ksize int) (*LearnableDegOp, error) {
	if steps <= 0 || channels <= 0 {
		return nil, fmt.Errorf("linop: invalid degradation operator size (%d steps, %d channels)", steps, channels)
	}
	if ksize <= 0 || ksize%2 == 0 {
		return nil, fmt.Errorf("linop: kernel size must be odd and positive, got %d", ksize)
	}
	op := &LearnableDegOp{
		Steps:    steps,
		Channels: channels,
		KSize:    ksize,
		kernels:  make([][]float64, steps),
	}
	center := (ksize/2)*ksize + ksize/2
	for s := range op.kernels {
		k := make([]float64, channels*ksize*ksize)
		for c := 0; c < channels; c++ {
			k[c*ksize*ksize+center] = 1
		}
		op.kernels[s] = k
	}
	return op, nil
}

// SetKernel replaces the kernel bank of one step.
func (op *LearnableDegOp) SetKernel(step int, k []float64) error {
	if step < 0 || step >= op.Steps {
		return fmt.Errorf("linop: step %d outside [0,%d)", step, op.Steps)
	}
	if len(k) != op.Channels*op.KSize*op.KSize {
		return fmt.Errorf("linop: kernel has %d elements, want %d",
			len(k), op.Channels*op.KSize*op.KSize)
	}
	op.kernels[step] = append([]float64(nil), k...)
	return nil
}

// Kernel returns the kernel bank of one step as a view.
func (op *LearnableDegOp) Kernel(step int) []float64 { return op.kernels[step] }

// LoadFrom restores every step's kernel from a checkpoint. Keys are
// "<prefix>.step<i>.kernel" with shape (Channels, KSize, KSize). All keys are
// verified before any kernel is replaced, so a bad bundle cannot leave the
// operator half loaded.
func (op *LearnableDegOp) LoadFrom(ck *ckpt.Checkpoint, prefix string) error {
	keys := make([]string, op.Steps)
	for s := range keys {
		keys[s] = fmt.Sprintf("%s.step%d.kernel", prefix, s)
	}
	if err := ck.Require(keys...); err != nil {
		return err
	}
	loaded := make([][]float64, op.Steps)
	for s, key := range keys {
		t, err := ck.Get(key, op.Channels, op.KSize, op.KSize)
		if err != nil {
			return err
		}
		loaded[s] = append([]float64(nil), t.Data...)
	}
	op.kernels = loaded
	return nil
}

func (op *LearnableDegOp) checkStep(step int) {
	if step < 0 || step >= op.Steps {
		panic(fmt.Sprintf("step %d outside [0,%d)", step, op.Steps))
	}
}

// ForwardStep convolves x with the kernel bank of the given step.
func (op *LearnableDegOp) ForwardStep(x *field.Real, step int) *field.Real {
	op.checkStep(step)
	return op.conv(x, step, false)
}

// AdjointStep correlates y with the kernel bank of the given step.
func (op *LearnableDegOp) AdjointStep(y *field.Real, step int) *field.Real {
	op.checkStep(step)
	return op.conv(y, step, true)
}

// conv applies a direct same-size convolution (or correlation) with zero
// boundary handling. Convolution and correlation with the same kernel are
// exact adjoints on equal-size zero-padded grids.
func (op *LearnableDegOp) conv(x *field.Real, step int, correlate bool) *field.Real {
	if x.Channels != op.Channels {
		panic(fmt.Sprintf("image has %d channels, operator wants %d", x.Channels, op.Channels))
	}
	k := op.kernels[step]
	r := op.KSize / 2
	out := field.NewReal(x.Width, x.Height, x.Channels)
	for c := 0; c < x.Channels; c++ {
		src := x.Plane(c)
		dst := out.Plane(c)
		kc := k[c*op.KSize*op.KSize : (c+1)*op.KSize*op.KSize]
		for y := 0; y < x.Height; y++ {
			for xx := 0; xx < x.Width; xx++ {
				sum := 0.0
				for dy := -r; dy <= r; dy++ {
					for dx := -r; dx <= r; dx++ {
						var sy, sx int
						if correlate {
							sy, sx = y+dy, xx+dx
						} else {
							sy, sx = y-dy, xx-dx
						}
						if sy < 0 || sy >= x.Height || sx < 0 || sx >= x.Width {
							continue
						}
						sum += kc[(dy+r)*op.KSize+(dx+r)] * src[sy*x.Width+sx]
					}
				}
				dst[y*x.Width+xx] = sum
			}
		}
	}
	return out
}
