// Package config loads matcher tuning from JSON files. The schema uses
// pointer-optional fields so a file only overrides the values it names;
// everything else keeps the built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/scanmatch/internal/match"
	"github.com/banshee-data/scanmatch/internal/raster"
)

// TuningConfig is the JSON schema for matcher tuning. All fields are
// optional; nil means "keep the default".
type TuningConfig struct {
	MetersPerPixel   *float64 `json:"meters_per_pixel,omitempty"`
	ThetaResolution  *float64 `json:"theta_resolution,omitempty"`
	DownsampleFactor *int     `json:"downsample_factor,omitempty"`
	UseThreads       *bool    `json:"use_threads,omitempty"`
	Verbose          *bool    `json:"verbose,omitempty"`

	// Strategy selects raster construction: "distance_lut", "gaussian" or
	// "blurred_line".
	Strategy *string `json:"strategy,omitempty"`
	// KernelSigma is the cost falloff width in meters for the selected
	// strategy.
	KernelSigma *float64 `json:"kernel_sigma,omitempty"`
	HitThresh   *int     `json:"hit_thresh,omitempty"`

	WindowCapacity          *int     `json:"window_capacity,omitempty"`
	InitialSearchRangeXY    *float64 `json:"initial_search_range_xy,omitempty"`
	MaxSearchRangeXY        *float64 `json:"max_search_range_xy,omitempty"`
	InitialSearchRangeTheta *float64 `json:"initial_search_range_theta,omitempty"`
	MaxSearchRangeTheta     *float64 `json:"max_search_range_theta,omitempty"`

	// MatchingMode is one of "grid_only", "grid_coord", "y_grid_coord",
	// "coord_only", "y_coord_only".
	MatchingMode           *string  `json:"matching_mode,omitempty"`
	AddScanHitThresh       *float64 `json:"add_scan_hit_thresh,omitempty"`
	StationaryMotionModel  *bool    `json:"stationary_motion_model,omitempty"`
	MotionModelPriorWeight *float64 `json:"motion_model_prior_weight,omitempty"`

	StartX     *float64 `json:"start_x,omitempty"`
	StartY     *float64 `json:"start_y,omitempty"`
	StartTheta *float64 `json:"start_theta,omitempty"`
}

// LoadTuningConfig reads and parses a tuning file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning config: %w", err)
	}
	var tc TuningConfig
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("parse tuning config %s: %w", path, err)
	}
	return &tc, nil
}

// Apply overlays the tuning values onto cfg and returns the result.
func (tc *TuningConfig) Apply(cfg match.Config) (match.Config, error) {
	if tc == nil {
		return cfg, nil
	}
	if tc.MetersPerPixel != nil {
		cfg.MetersPerPixel = *tc.MetersPerPixel
	}
	if tc.ThetaResolution != nil {
		cfg.ThetaResolution = *tc.ThetaResolution
	}
	if tc.DownsampleFactor != nil {
		cfg.DownsampleFactor = *tc.DownsampleFactor
	}
	if tc.UseThreads != nil {
		cfg.UseThreads = *tc.UseThreads
	}
	if tc.Verbose != nil {
		cfg.Verbose = *tc.Verbose
	}
	if tc.Strategy != nil || tc.KernelSigma != nil {
		name := ""
		if tc.Strategy != nil {
			name = *tc.Strategy
		}
		b, err := raster.ParseBuilder(name)
		if err != nil {
			return cfg, err
		}
		if tc.KernelSigma != nil {
			switch builder := b.(type) {
			case *raster.DistanceLUTBuilder:
				builder.SigmaMeters = *tc.KernelSigma
			case *raster.GaussianBuilder:
				builder.SigmaMeters = *tc.KernelSigma
			case *raster.BlurredLineBuilder:
				builder.SigmaMeters = *tc.KernelSigma
			}
		}
		cfg.Builder = b
	}
	if tc.HitThresh != nil {
		if *tc.HitThresh < 0 || *tc.HitThresh > 255 {
			return cfg, fmt.Errorf("hit_thresh must be in [0,255], got %d", *tc.HitThresh)
		}
		cfg.HitThresh = uint8(*tc.HitThresh)
	}
	if tc.WindowCapacity != nil {
		cfg.WindowCapacity = *tc.WindowCapacity
	}
	if tc.InitialSearchRangeXY != nil {
		cfg.InitialSearchRangeXY = *tc.InitialSearchRangeXY
	}
	if tc.MaxSearchRangeXY != nil {
		cfg.MaxSearchRangeXY = *tc.MaxSearchRangeXY
	}
	if tc.InitialSearchRangeTheta != nil {
		cfg.InitialSearchRangeTheta = *tc.InitialSearchRangeTheta
	}
	if tc.MaxSearchRangeTheta != nil {
		cfg.MaxSearchRangeTheta = *tc.MaxSearchRangeTheta
	}
	if tc.MatchingMode != nil {
		mode, err := match.ParseMode(*tc.MatchingMode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if tc.AddScanHitThresh != nil {
		cfg.AddScanHitThresh = *tc.AddScanHitThresh
	}
	if tc.StationaryMotionModel != nil {
		cfg.StationaryMotionModel = *tc.StationaryMotionModel
	}
	if tc.MotionModelPriorWeight != nil {
		cfg.MotionModelPriorWeight = *tc.MotionModelPriorWeight
	}
	if tc.StartX != nil {
		cfg.StartPose.X = *tc.StartX
	}
	if tc.StartY != nil {
		cfg.StartPose.Y = *tc.StartY
	}
	if tc.StartTheta != nil {
		cfg.StartPose.Theta = *tc.StartTheta
	}
	return cfg, nil
}
