// Package imgio moves images between PNG files and rasters on the [0,1]
// intensity scale, and provides the small capture-synthesis helpers the
// examples need: resampling to the sensor patch, additive Gaussian noise and
// PSNR.
package imgio

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"math/rand/v2"
	"os"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/proxopt/proxopt/field"
)

// Load decodes a PNG into a 3-channel raster with values in [0,1].
func Load(path string) (*field.Real, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio: open %q: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imgio: decode %q: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image to a 3-channel raster in [0,1].
func FromImage(img image.Image) *field.Real {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	}
	out := field.NewReal(b.Dx(), b.Dy(), 3)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			i := nrgba.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				out.Set(c, y, x, float64(nrgba.Pix[i+c])/255)
			}
		}
	}
	return out
}

// ToImage converts a raster to an 8-bit image, clamping to [0,1]. One-channel
// rasters become grayscale; three-channel rasters become color.
func ToImage(f *field.Real) (image.Image, error) {
	switch f.Channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				img.Pix[y*img.Stride+x] = quantize(f.At(0, y, x))
			}
		}
		return img, nil
	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				i := img.PixOffset(x, y)
				img.Pix[i+0] = quantize(f.At(0, y, x))
				img.Pix[i+1] = quantize(f.At(1, y, x))
				img.Pix[i+2] = quantize(f.At(2, y, x))
				img.Pix[i+3] = 255
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("imgio: cannot render %d-channel raster", f.Channels)
	}
}

func quantize(v float64) uint8 {
	u := math.Round(v * 255)
	if u < 0 {
		u = 0
	} else if u > 255 {
		u = 255
	}
	return uint8(u)
}

// Save writes a raster as a PNG.
func Save(path string, f *field.Real) error {
	img, err := ToImage(f)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imgio: create %q: %w", path, err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("imgio: encode %q: %w", path, err)
	}
	return out.Close()
}

// Resample rescales a 3-channel raster to width x height with Lanczos
// filtering, e.g. to fit a sample image to the sensor patch.
func Resample(f *field.Real, width, height int) (*field.Real, error) {
	img, err := ToImage(f)
	if err != nil {
		return nil, err
	}
	resized := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	return FromImage(resized), nil
}

// AddGaussianNoise returns f plus zero-mean Gaussian noise with the given
// standard deviation, seeded deterministically.
func AddGaussianNoise(f *field.Real, sigma float64, seed uint64) *field.Real {
	n := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, seed)}
	out := f.Clone()
	for i := range out.Elems {
		out.Elems[i] += n.Rand()
	}
	return out
}

// PSNR returns the peak signal-to-noise ratio between two rasters in dB,
// with peak signal 1. Identical inputs give +Inf.
func PSNR(a, b *field.Real) float64 {
	if !a.SameShape(b) {
		panic(fmt.Sprintf("shape mismatch: %dx%dx%d vs %dx%dx%d",
			a.Channels, a.Height, a.Width, b.Channels, b.Height, b.Width))
	}
	mse := 0.0
	for i := range a.Elems {
		d := a.Elems[i] - b.Elems[i]
		mse += d * d
	}
	mse /= float64(len(a.Elems))
	if mse == 0 {
		return math.Inf(1)
	}
	return -10 * math.Log10(mse)
}
