package match

import (
	"fmt"
	"log"
	"math"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/raster"
)

// Config is the full configuration surface of the matcher.
type Config struct {
	// MetersPerPixel is the local map resolution and the xy lattice
	// spacing of the grid search.
	MetersPerPixel float64
	// ThetaResolution is the heading lattice spacing in radians.
	ThetaResolution float64
	// DownsampleFactor enables multi-resolution search: the low-res raster
	// is downsampled by 2^DownsampleFactor. 0 disables multi-resolution.
	DownsampleFactor int
	// UseThreads moves occupancy map rebuilds to a background worker so
	// matching calls never block on a rebuild.
	UseThreads bool
	// Verbose enables diagnostic logging via internal/monitoring.
	Verbose bool
	// Logger receives lifecycle messages; nil selects log.Default().
	Logger *log.Logger

	// Builder selects the raster construction strategy; nil selects the
	// exact-lookup (distance LUT) builder.
	Builder raster.Builder

	// HitThresh is the minimum cell cost for a projected point to count
	// as a hit when computing the admission fraction.
	HitThresh uint8

	// Successive-matching parameters.

	// WindowCapacity bounds the sliding scan window.
	WindowCapacity int
	// InitialSearchRangeXY is the nominal half-width in meters of the xy
	// search window. A saturated axis is retried once expanded up to
	// MaxSearchRangeXY.
	InitialSearchRangeXY float64
	// MaxSearchRangeXY caps xy window expansion.
	MaxSearchRangeXY float64
	// InitialSearchRangeTheta is the nominal half-width in radians of the
	// heading search window.
	InitialSearchRangeTheta float64
	// MaxSearchRangeTheta caps heading window expansion.
	MaxSearchRangeTheta float64
	// Mode selects the search phases (see Mode).
	Mode Mode
	// AddScanHitThresh admits a scan into the window when the fraction of
	// its points hitting existing structure is below this value.
	AddScanHitThresh float64
	// StationaryMotionModel predicts from the last accepted pose instead
	// of constant-velocity extrapolation.
	StationaryMotionModel bool
	// MotionModelPriorWeight is the standard deviation attached to
	// motion-model predictions. Below geom.MinPriorWeight the prediction
	// only centres the search window.
	MotionModelPriorWeight float64
	// StartPose initialises the successive-matching pose.
	StartPose geom.Transform
}

// DefaultConfig returns parameters suited to indoor planar lidar at
// centimeter resolution.
func DefaultConfig() Config {
	return Config{
		MetersPerPixel:          0.02,
		ThetaResolution:         0.01,
		DownsampleFactor:        0,
		HitThresh:               64,
		WindowCapacity:          30,
		InitialSearchRangeXY:    0.15,
		MaxSearchRangeXY:        0.30,
		InitialSearchRangeTheta: 0.10,
		MaxSearchRangeTheta:     math.Pi / 8,
		Mode:                    ModeGridCoord,
		AddScanHitThresh:        0.80,
		MotionModelPriorWeight:  0,
	}
}

// Validate checks the configuration for values the matcher cannot run
// with. It does not mutate; New applies defaults first.
func (c Config) Validate() error {
	if c.MetersPerPixel <= 0 {
		return fmt.Errorf("match: MetersPerPixel must be positive, got %v", c.MetersPerPixel)
	}
	if c.ThetaResolution <= 0 {
		return fmt.Errorf("match: ThetaResolution must be positive, got %v", c.ThetaResolution)
	}
	if c.DownsampleFactor < 0 {
		return fmt.Errorf("match: DownsampleFactor must be >= 0, got %d", c.DownsampleFactor)
	}
	if c.WindowCapacity < 1 {
		return fmt.Errorf("match: WindowCapacity must be >= 1, got %d", c.WindowCapacity)
	}
	if c.InitialSearchRangeXY < 0 || c.InitialSearchRangeTheta < 0 {
		return fmt.Errorf("match: search ranges must be >= 0")
	}
	if c.MaxSearchRangeXY < c.InitialSearchRangeXY {
		return fmt.Errorf("match: MaxSearchRangeXY (%v) below InitialSearchRangeXY (%v)",
			c.MaxSearchRangeXY, c.InitialSearchRangeXY)
	}
	if c.MaxSearchRangeTheta < c.InitialSearchRangeTheta {
		return fmt.Errorf("match: MaxSearchRangeTheta (%v) below InitialSearchRangeTheta (%v)",
			c.MaxSearchRangeTheta, c.InitialSearchRangeTheta)
	}
	if c.AddScanHitThresh < 0 || c.AddScanHitThresh > 1 {
		return fmt.Errorf("match: AddScanHitThresh must be in [0,1], got %v", c.AddScanHitThresh)
	}
	return nil
}

// lowResMetersPerPixel returns the resolution of the coarse raster, or 0
// when multi-resolution search is disabled.
func (c Config) lowResMetersPerPixel() float64 {
	if c.DownsampleFactor <= 0 {
		return 0
	}
	return c.MetersPerPixel * float64(int(1)<<uint(c.DownsampleFactor))
}
