package ckpt

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"

	"github.com/proxopt/proxopt/field"
)

// LoadNPY reads a NumPy .npy array of float32 or float64 values as a tensor.
func LoadNPY(path string) (Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tensor{}, fmt.Errorf("ckpt: open %q: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return Tensor{}, fmt.Errorf("ckpt: read npy header of %q: %w", path, err)
	}
	shape := append([]int(nil), r.Header.Descr.Shape...)

	var data []float64
	switch dt := r.Header.Descr.Type; dt {
	case "<f8", "f8", ">f8":
		if err := r.Read(&data); err != nil {
			return Tensor{}, fmt.Errorf("ckpt: read npy data of %q: %w", path, err)
		}
	case "<f4", "f4", ">f4":
		var f32 []float32
		if err := r.Read(&f32); err != nil {
			return Tensor{}, fmt.Errorf("ckpt: read npy data of %q: %w", path, err)
		}
		data = make([]float64, len(f32))
		for i, v := range f32 {
			data[i] = float64(v)
		}
	default:
		return Tensor{}, fmt.Errorf("ckpt: %q has dtype %q, want float32 or float64", path, dt)
	}

	t := Tensor{Shape: shape, Data: data}
	if t.Numel() != len(data) {
		return Tensor{}, fmt.Errorf("ckpt: %q has %d elements but header shape implies %d",
			path, len(data), t.Numel())
	}
	return t, nil
}

// LoadMask reads a 2D binary sampling mask from a .npy file. Any nonzero
// entry becomes 1.
func LoadMask(path string) (*field.Real, error) {
	t, err := LoadNPY(path)
	if err != nil {
		return nil, err
	}
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("ckpt: mask %q has rank %d, want 2", path, len(t.Shape))
	}
	h, w := t.Shape[0], t.Shape[1]
	m := field.NewReal(w, h, 1)
	for i, v := range t.Data {
		if v != 0 {
			m.Elems[i] = 1
		}
	}
	return m, nil
}
