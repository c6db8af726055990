package fourier

import "fmt"

// PSF2OTF embeds a centered point spread function of size psfW x psfH onto a
// width x height grid with its center wrapped to (0,0), then returns the
// forward transform. The result is the optical transfer function used for
// frequency-domain convolution.
//
// The grid must be at least as large as the kernel.
func PSF2OTF(psf []float64, psfW, psfH, width, height int, t *FFT2) []complex128 {
	if len(psf) != psfW*psfH {
		panic(fmt.Sprintf("psf has %d elements, want %dx%d", len(psf), psfH, psfW))
	}
	if psfW > width || psfH > height {
		panic(fmt.Sprintf("psf %dx%d larger than grid %dx%d", psfH, psfW, height, width))
	}
	grid := make([]complex128, width*height)
	cy := psfH / 2
	cx := psfW / 2
	for y := 0; y < psfH; y++ {
		ty := ((y - cy) + height) % height
		for x := 0; x < psfW; x++ {
			tx := ((x - cx) + width) % width
			grid[ty*width+tx] = complex(psf[y*psfW+x], 0)
		}
	}
	t.Forward(grid)
	return grid
}
