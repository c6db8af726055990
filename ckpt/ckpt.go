// Package ckpt persists and restores parameter bundles: flat mappings from
// named parameter groups to tensors. Bundles are serialized with
// encoding/gob; externally produced arrays (sampling masks, Zernike basis
// volumes) are ingested from NumPy .npy files.
//
// Loading is strict: a consumer states the keys and shapes it needs and a
// bundle that cannot satisfy them fails with a full report instead of
// partially loading.
package ckpt

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Tensor is a named parameter group's payload: a shape and flat row-major
// data.
type Tensor struct {
	Shape []int
	Data  []float64
}

// Numel returns the number of elements the shape implies.
func (t Tensor) Numel() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

func (t Tensor) shapeString() string {
	parts := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Checkpoint is a flat name -> tensor mapping.
type Checkpoint struct {
	Params map[string]Tensor
}

// New returns an empty checkpoint.
func New() *Checkpoint {
	return &Checkpoint{Params: make(map[string]Tensor)}
}

// Put stores a tensor, validating shape against data length.
func (ck *Checkpoint) Put(name string, shape []int, data []float64) error {
	t := Tensor{Shape: append([]int(nil), shape...), Data: data}
	if t.Numel() != len(data) {
		return fmt.Errorf("ckpt: %q has %d elements but shape %s implies %d",
			name, len(data), t.shapeString(), t.Numel())
	}
	ck.Params[name] = t
	return nil
}

// Require verifies that every key is present, reporting all missing keys at
// once.
func (ck *Checkpoint) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := ck.Params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("ckpt: missing keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Get fetches a tensor and, when an expected shape is given, verifies it.
func (ck *Checkpoint) Get(name string, shape ...int) (Tensor, error) {
	t, ok := ck.Params[name]
	if !ok {
		return Tensor{}, fmt.Errorf("ckpt: missing key %q", name)
	}
	if len(shape) > 0 {
		want := Tensor{Shape: shape}
		if len(t.Shape) != len(shape) {
			return Tensor{}, fmt.Errorf("ckpt: %q has shape %s, want %s",
				name, t.shapeString(), want.shapeString())
		}
		for i, d := range shape {
			if t.Shape[i] != d {
				return Tensor{}, fmt.Errorf("ckpt: %q has shape %s, want %s",
					name, t.shapeString(), want.shapeString())
			}
		}
	}
	return t, nil
}

// Vector fetches a rank-1 tensor's data.
func (ck *Checkpoint) Vector(name string) ([]float64, error) {
	t, ok := ck.Params[name]
	if !ok {
		return nil, fmt.Errorf("ckpt: missing key %q", name)
	}
	if len(t.Shape) != 1 {
		return nil, fmt.Errorf("ckpt: %q has shape %s, want a vector", name, t.shapeString())
	}
	return t.Data, nil
}

// Save writes the checkpoint to path.
func Save(path string, ck *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ckpt: create %q: %w", path, err)
	}
	if err := gob.NewEncoder(f).Encode(ck); err != nil {
		f.Close()
		return fmt.Errorf("ckpt: encode %q: %w", path, err)
	}
	return f.Close()
}

// Load reads a checkpoint from path.
func Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ckpt: open %q: %w", path, err)
	}
	defer f.Close()
	var ck Checkpoint
	if err := gob.NewDecoder(f).Decode(&ck); err != nil {
		return nil, fmt.Errorf("ckpt: decode %q: %w", path, err)
	}
	if ck.Params == nil {
		return nil, errors.New("ckpt: bundle has no parameters")
	}
	for name, t := range ck.Params {
		if t.Numel() != len(t.Data) {
			return nil, fmt.Errorf("ckpt: %q has %d elements but shape %s implies %d",
				name, len(t.Data), t.shapeString(), t.Numel())
		}
	}
	return &ck, nil
}
