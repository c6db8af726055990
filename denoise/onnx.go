//go:build cgo
// +build cgo

package denoise

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/proxopt/proxopt/field"
)

// ONNXOptions configures the onnxruntime-backed denoiser.
type ONNXOptions struct {
	// Path to the onnxruntime shared library (.so/.dylib/.dll). If empty,
	// the library's default lookup applies.
	SharedLibraryPath string

	// Input and output tensor names in the model graph.
	InputName  string
	OutputName string

	// NoiseChannel appends a constant noise-level plane to the input, the
	// FFDNet-style conditioning convention.
	NoiseChannel bool
}

// ONNX runs a pretrained denoising network through onnxruntime. The network
// is opaque to the solver: any graph mapping (1,C[,+1],H,W) to (1,C,H,W)
// satisfies the contract.
type ONNX struct {
	modelPath string
	opts      ONNXOptions
}

var ortInit sync.Once

// NewONNX prepares a denoiser backed by the model at modelPath.
func NewONNX(modelPath string, opts ONNXOptions) (*ONNX, error) {
	if modelPath == "" {
		return nil, errors.New("denoise: empty model path")
	}
	if opts.InputName == "" {
		opts.InputName = "input"
	}
	if opts.OutputName == "" {
		opts.OutputName = "output"
	}
	var initErr error
	ortInit.Do(func() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("denoise: initialize onnxruntime: %w", initErr)
	}
	return &ONNX{modelPath: modelPath, opts: opts}, nil
}

// Denoise runs the network on x at the given noise level. Inference errors
// surface as a panic because the denoiser contract has no error channel; run
// a probe image through the model after loading if that is a concern.
func (d *ONNX) Denoise(x *field.Real, sigma float64) *field.Real {
	inChannels := x.Channels
	if d.opts.NoiseChannel {
		inChannels++
	}
	plane := x.Width * x.Height
	in := make([]float32, inChannels*plane)
	for i, v := range x.Elems {
		in[i] = float32(v)
	}
	if d.opts.NoiseChannel {
		level := float32(sigma)
		tail := in[x.Channels*plane:]
		for i := range tail {
			tail[i] = level
		}
	}

	inShape := ort.NewShape(1, int64(inChannels), int64(x.Height), int64(x.Width))
	inTensor, err := ort.NewTensor(inShape, in)
	if err != nil {
		panic(fmt.Errorf("denoise: input tensor: %w", err))
	}
	defer inTensor.Destroy()

	outShape := ort.NewShape(1, int64(x.Channels), int64(x.Height), int64(x.Width))
	outTensor, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		panic(fmt.Errorf("denoise: output tensor: %w", err))
	}
	defer outTensor.Destroy()

	session, err := ort.NewAdvancedSession(d.modelPath,
		[]string{d.opts.InputName}, []string{d.opts.OutputName},
		[]ort.ArbitraryTensor{inTensor}, []ort.ArbitraryTensor{outTensor}, nil)
	if err != nil {
		panic(fmt.Errorf("denoise: session for %q: %w", d.modelPath, err))
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		panic(fmt.Errorf("denoise: run %q: %w", d.modelPath, err))
	}

	out := field.NewReal(x.Width, x.Height, x.Channels)
	for i, v := range outTensor.GetData() {
		out.Elems[i] = float64(v)
	}
	return out
}
