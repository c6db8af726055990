package fourier

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardInverseRoundtrip(t *testing.T) {
	const w, h = 12, 9
	rng := rand.New(rand.NewSource(3))

	orig := make([]complex128, w*h)
	for i := range orig {
		orig[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	a := append([]complex128(nil), orig...)

	fft := NewFFT2(w, h)
	fft.Forward(a)
	fft.Inverse(a)

	for i := range a {
		assert.InDelta(t, real(orig[i]), real(a[i]), 1e-10)
		assert.InDelta(t, imag(orig[i]), imag(a[i]), 1e-10)
	}
}

func TestForwardDC(t *testing.T) {
	const w, h = 8, 8
	a := make([]complex128, w*h)
	for i := range a {
		a[i] = 1
	}
	fft := NewFFT2(w, h)
	fft.Forward(a)

	// All energy lands in the zero-frequency bin.
	assert.InDelta(t, float64(w*h), real(a[0]), 1e-10)
	for i := 1; i < len(a); i++ {
		assert.InDelta(t, 0, cmplx.Abs(a[i]), 1e-10)
	}
}

func TestIFFTShiftMovesCenterToOrigin(t *testing.T) {
	const w, h = 6, 4
	a := make([]complex128, w*h)
	a[(h/2)*w+w/2] = 1

	s := IFFTShift(a, w, h)
	assert.Equal(t, complex(1, 0), s[0])
	for i := 1; i < len(s); i++ {
		assert.Equal(t, complex(0, 0), s[i])
	}
}

func TestPSF2OTFDeltaIsAllOnes(t *testing.T) {
	const pw, ph = 5, 5
	const w, h = 16, 16

	psf := make([]float64, pw*ph)
	psf[(ph/2)*pw+pw/2] = 1

	fft := NewFFT2(w, h)
	otf := PSF2OTF(psf, pw, ph, w, h, fft)
	require.Len(t, otf, w*h)
	for i := range otf {
		assert.InDelta(t, 1, real(otf[i]), 1e-10)
		assert.InDelta(t, 0, imag(otf[i]), 1e-10)
	}
}

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, NextPow2(1))
	assert.Equal(t, 8, NextPow2(5))
	assert.Equal(t, 8, NextPow2(8))
	assert.Equal(t, 16, NextPow2(9))
}
