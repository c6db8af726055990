package optics

import (
	"fmt"
	"math"
)

// ZernikeVolume is a fixed basis of K Zernike polynomials sampled on the
// simulation grid, shape (K, Height, Width). It is supplied to a height map
// at construction and never mutated afterwards.
type ZernikeVolume struct {
	Data   []float64
	K      int
	Width  int
	Height int
}

// NewZernikeVolume wraps raw basis data. The slice is retained, not copied.
func NewZernikeVolume(data []float64, k, width, height int) (*ZernikeVolume, error) {
	if k <= 0 {
		return nil, fmt.Errorf("optics: zernike basis needs at least one term, got %d", k)
	}
	if len(data) != k*width*height {
		return nil, fmt.Errorf("optics: zernike volume has %d elements, want %d (%d terms of %dx%d)",
			len(data), k*width*height, k, height, width)
	}
	return &ZernikeVolume{Data: data, K: k, Width: width, Height: height}, nil
}

// Plane returns term k as a row-major view.
func (v *ZernikeVolume) Plane(k int) []float64 {
	n := v.Width * v.Height
	return v.Data[k*n : (k+1)*n]
}

// ZernikeBasis samples the first k Noll-ordered Zernike polynomials on the
// grid, normalized to the grid's aperture radius and zero outside the unit
// disk. Hosts with a precomputed volume can skip this and load theirs via
// NewZernikeVolume.
func ZernikeBasis(k int, g *Grid) (*ZernikeVolume, error) {
	if k <= 0 {
		return nil, fmt.Errorf("optics: zernike basis needs at least one term, got %d", k)
	}
	radius := g.MaxX()
	if radius <= 0 {
		return nil, fmt.Errorf("optics: grid too small for a zernike basis")
	}
	n := g.Width * g.Height
	data := make([]float64, k*n)
	for j := 1; j <= k; j++ {
		nn, mm := nollIndices(j)
		plane := data[(j-1)*n : j*n]
		for i := 0; i < n; i++ {
			r := math.Sqrt(g.X[i]*g.X[i]+g.Y[i]*g.Y[i]) / radius
			if r > 1 {
				continue
			}
			theta := math.Atan2(g.Y[i], g.X[i])
			plane[i] = zernikeValue(nn, mm, r, theta)
		}
	}
	return NewZernikeVolume(data, k, g.Width, g.Height)
}

// nollIndices maps a 1-based Noll index to radial order n and azimuthal
// frequency m (signed; negative selects the sine term).
func nollIndices(j int) (n, m int) {
	idx := 1
	for n = 0; ; n++ {
		var ms []int
		if n%2 == 0 {
			for mm := 0; mm <= n; mm += 2 {
				ms = append(ms, mm)
			}
		} else {
			for mm := 1; mm <= n; mm += 2 {
				ms = append(ms, mm)
			}
		}
		for _, mm := range ms {
			if mm == 0 {
				if idx == j {
					return n, 0
				}
				idx++
				continue
			}
			// Two terms per |m|; the even Noll index takes the cosine form.
			first, second := mm, -mm
			if idx%2 != 0 {
				first, second = -mm, mm
			}
			if idx == j {
				return n, first
			}
			idx++
			if idx == j {
				return n, second
			}
			idx++
		}
	}
}

func zernikeValue(n, m int, r, theta float64) float64 {
	am := m
	if am < 0 {
		am = -am
	}
	v := zernikeRadial(n, am, r)
	switch {
	case m > 0:
		v *= math.Sqrt(2*float64(n+1)) * math.Cos(float64(am)*theta)
	case m < 0:
		v *= math.Sqrt(2*float64(n+1)) * math.Sin(float64(am)*theta)
	default:
		v *= math.Sqrt(float64(n + 1))
	}
	return v
}

func zernikeRadial(n, m int, r float64) float64 {
	if (n-m)%2 != 0 {
		return 0
	}
	sum := 0.0
	for s := 0; s <= (n-m)/2; s++ {
		num := factorial(n - s)
		den := factorial(s) * factorial((n+m)/2-s) * factorial((n-m)/2-s)
		term := num / den * math.Pow(r, float64(n-2*s))
		if s%2 != 0 {
			term = -term
		}
		sum += term
	}
	return sum
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
