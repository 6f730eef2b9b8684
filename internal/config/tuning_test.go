package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanmatch/internal/match"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeFile(t, `{
		"meters_per_pixel": 0.04,
		"downsample_factor": 3,
		"use_threads": true,
		"strategy": "blurred_line",
		"kernel_sigma": 0.08,
		"matching_mode": "y_grid_coord",
		"window_capacity": 12,
		"add_scan_hit_thresh": 0.7,
		"start_x": 1.5,
		"start_theta": 0.2
	}`)

	tc, err := LoadTuningConfig(path)
	require.NoError(t, err)

	cfg, err := tc.Apply(match.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.04, cfg.MetersPerPixel)
	assert.Equal(t, 3, cfg.DownsampleFactor)
	assert.True(t, cfg.UseThreads)
	assert.Equal(t, "blurred_line", cfg.Builder.Name())
	assert.Equal(t, match.ModeYGridCoord, cfg.Mode)
	assert.Equal(t, 12, cfg.WindowCapacity)
	assert.Equal(t, 0.7, cfg.AddScanHitThresh)
	assert.Equal(t, 1.5, cfg.StartPose.X)
	assert.Equal(t, 0.2, cfg.StartPose.Theta)

	// Unset fields keep defaults.
	def := match.DefaultConfig()
	assert.Equal(t, def.ThetaResolution, cfg.ThetaResolution)
	assert.Equal(t, def.MaxSearchRangeXY, cfg.MaxSearchRangeXY)
}

func TestApplyEmptyKeepsDefaults(t *testing.T) {
	path := writeFile(t, `{}`)
	tc, err := LoadTuningConfig(path)
	require.NoError(t, err)

	cfg, err := tc.Apply(match.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, match.DefaultConfig(), cfg)
}

func TestApplyNilReceiver(t *testing.T) {
	var tc *TuningConfig
	cfg, err := tc.Apply(match.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, match.DefaultConfig(), cfg)
}

func TestApplyRejectsBadValues(t *testing.T) {
	t.Run("unknown strategy", func(t *testing.T) {
		tc, err := LoadTuningConfig(writeFile(t, `{"strategy": "octree"}`))
		require.NoError(t, err)
		_, err = tc.Apply(match.DefaultConfig())
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		tc, err := LoadTuningConfig(writeFile(t, `{"matching_mode": "diagonal"}`))
		require.NoError(t, err)
		_, err = tc.Apply(match.DefaultConfig())
		assert.Error(t, err)
	})

	t.Run("hit thresh out of range", func(t *testing.T) {
		tc, err := LoadTuningConfig(writeFile(t, `{"hit_thresh": 300}`))
		require.NoError(t, err)
		_, err = tc.Apply(match.DefaultConfig())
		assert.Error(t, err)
	})
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadTuningConfig(writeFile(t, `{not json`))
	assert.Error(t, err)
}
