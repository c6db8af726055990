package render

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/proxopt/proxopt/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurface(w, h int) *field.Real {
	f := field.NewReal(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(0, y, x, math.Sin(float64(x)/3)*math.Cos(float64(y)/3))
		}
	}
	return f
}

func TestHeatmap(t *testing.T) {
	img, err := Heatmap(testSurface(24, 16), 0, "height map")
	require.NoError(t, err)
	b := img.Bounds()
	assert.Positive(t, b.Dx())
	assert.Positive(t, b.Dy())

	_, err = Heatmap(testSurface(24, 16), 3, "bad channel")
	assert.Error(t, err)
}

func TestSaveHeatmapWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psf.png")
	require.NoError(t, SaveHeatmap(path, testSurface(16, 16), 0, "psf"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSaveProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.png")
	require.NoError(t, SaveProfile(path, testSurface(32, 8), 0, 4, "cross section"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, SaveProfile(filepath.Join(t.TempDir(), "r.png"), testSurface(32, 8), 0, 99, "row out of range"))
}

func TestStepTicks(t *testing.T) {
	ticks := StepTicks{Step: 8, Format: "%.0f"}.Ticks(0, 32)
	require.NotEmpty(t, ticks)
	assert.Equal(t, 0.0, ticks[0].Value)
	last := ticks[len(ticks)-1]
	assert.LessOrEqual(t, last.Value, 32.0)
	assert.Equal(t, "0", ticks[0].Label)
}
