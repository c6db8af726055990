//go:build !cgo
// +build !cgo

package denoise

import (
	"errors"

	"github.com/proxopt/proxopt/field"
)

// ONNXOptions configures the onnxruntime-backed denoiser. Without cgo the
// backend is unavailable and NewONNX always fails.
type ONNXOptions struct {
	SharedLibraryPath string
	InputName         string
	OutputName        string
	NoiseChannel      bool
}

// ONNX is unavailable in builds without cgo.
type ONNX struct{}

// NewONNX reports that the onnxruntime backend requires cgo.
func NewONNX(string, ONNXOptions) (*ONNX, error) {
	return nil, errors.New("denoise: onnxruntime backend requires a cgo build")
}

// Denoise is never reachable; NewONNX refuses to construct the type.
func (*ONNX) Denoise(x *field.Real, _ float64) *field.Real { return x.Clone() }
