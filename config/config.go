// Package config reads optical-system configurations from JSON5 parameter
// files. Missing fields fall back to the reference DOE setup; present fields
// are validated before any system is built, so a bad file fails here rather
// than at first use.
package config

import (
	"fmt"
	"os"
	"strconv"

	json "github.com/KevinWang15/go-json5"

	"github.com/proxopt/proxopt/ckpt"
	"github.com/proxopt/proxopt/optics"
)

// file is the on-disk schema. Pointer fields distinguish "absent" from zero.
type file struct {
	SensorDistanceM   *float64           `json:"sensor_distance_m"`
	WavelengthsNm     []float64          `json:"wavelengths_nm"`
	RefractiveIndices []float64          `json:"refractive_indices"`
	PatchSize         *int               `json:"patch_size"`
	SampleIntervalM   *float64           `json:"sample_interval_m"`
	WaveResolution    []int              `json:"wave_resolution"`
	Circular          *bool              `json:"circular_convolution"`
	ZernikeVolumePath string             `json:"zernike_volume_path"`
	ZernikeCoeffs     map[string]float64 `json:"zernike_coeffs"`
}

// LoadSystem reads path (JSON or JSON5) and returns a validated system
// configuration.
func LoadSystem(path string) (optics.SystemConfig, error) {
	cfg := optics.DefaultSystemConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}

	if f.SensorDistanceM != nil {
		cfg.SensorDistance = *f.SensorDistanceM
	}
	if f.WavelengthsNm != nil {
		cfg.Wavelengths = make([]float64, len(f.WavelengthsNm))
		for i, nm := range f.WavelengthsNm {
			cfg.Wavelengths[i] = nm * 1e-9
		}
	}
	if f.RefractiveIndices != nil {
		cfg.RefractiveIdcs = append([]float64(nil), f.RefractiveIndices...)
	}
	if f.PatchSize != nil {
		cfg.PatchSize = *f.PatchSize
	}
	if f.SampleIntervalM != nil {
		cfg.SampleInterval = *f.SampleIntervalM
	}
	if f.WaveResolution != nil {
		if len(f.WaveResolution) != 2 {
			return cfg, fmt.Errorf("config: wave_resolution needs [height, width], got %d entries", len(f.WaveResolution))
		}
		cfg.WaveHeight, cfg.WaveWidth = f.WaveResolution[0], f.WaveResolution[1]
	}
	if f.Circular != nil {
		cfg.Circular = *f.Circular
	}

	if f.ZernikeVolumePath != "" {
		t, err := ckpt.LoadNPY(f.ZernikeVolumePath)
		if err != nil {
			return cfg, err
		}
		if len(t.Shape) != 3 {
			return cfg, fmt.Errorf("config: zernike volume %q has rank %d, want 3", f.ZernikeVolumePath, len(t.Shape))
		}
		vol, err := optics.NewZernikeVolume(t.Data, t.Shape[0], t.Shape[2], t.Shape[1])
		if err != nil {
			return cfg, err
		}
		cfg.ZernikeVolume = vol
	}
	if len(f.ZernikeCoeffs) > 0 {
		cfg.InitialZernikeCoeffs = make(map[int]float64, len(f.ZernikeCoeffs))
		for key, v := range f.ZernikeCoeffs {
			k, err := strconv.Atoi(key)
			if err != nil {
				return cfg, fmt.Errorf("config: zernike_coeffs key %q is not an index", key)
			}
			cfg.InitialZernikeCoeffs[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}
