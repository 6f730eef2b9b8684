package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/scanmatch/internal/scan"
)

// ErrNoScans is returned when a build is requested against an empty
// snapshot. The matcher treats a missing raster as "no evidence" rather
// than an error, so this only surfaces to direct Builder callers.
var ErrNoScans = errors.New("raster: no scans to rasterise")

// Builder turns a frozen scan snapshot into an occupancy raster at a given
// resolution. Implementations must not retain or mutate the snapshot and
// must produce geometrically consistent bounds: the padded bounding box of
// all contributing map-frame points.
type Builder interface {
	// Name identifies the strategy for configuration and logging.
	Name() string
	// Build rasterises the snapshot at metersPerPixel.
	Build(scans []*scan.Scan, metersPerPixel float64) (*Raster, error)
}

// ParseBuilder maps a configuration strategy name to a Builder with
// default kernel parameters.
func ParseBuilder(name string) (Builder, error) {
	switch name {
	case "", "distance_lut":
		return NewDistanceLUTBuilder(0), nil
	case "gaussian":
		return NewGaussianBuilder(0), nil
	case "blurred_line":
		return NewBlurredLineBuilder(0), nil
	default:
		return nil, fmt.Errorf("raster: unknown build strategy %q", name)
	}
}

// DefaultKernelSigma is the spatial standard deviation in meters of the
// cost falloff around occupied cells when a builder is constructed with
// sigma <= 0.
const DefaultKernelSigma = 0.05

// maxKernelRadiusCells caps kernel size so a pathological sigma/resolution
// combination cannot blow up build cost quadratically.
const maxKernelRadiusCells = 32

// distanceLUT is a 1-D squared-cell-distance to cost table shared by the
// stamping builders. Index is squared distance in cells; value is the
// cost. Entries past firstZero are all zero.
type distanceLUT struct {
	radius    int // kernel radius in cells
	firstZero int // first squared distance with zero cost
	cost      []uint8
}

// makeDistanceLUT precomputes the cost table for a Gaussian falloff with
// the given sigma in meters at the given resolution.
func makeDistanceLUT(sigmaMeters, metersPerPixel float64) distanceLUT {
	sigmaCells := sigmaMeters / metersPerPixel
	radius := int(math.Ceil(3 * sigmaCells))
	if radius < 1 {
		radius = 1
	}
	if radius > maxKernelRadiusCells {
		radius = maxKernelRadiusCells
	}
	lut := distanceLUT{
		radius: radius,
		cost:   make([]uint8, 2*radius*radius+1),
	}
	lut.firstZero = len(lut.cost)
	for dSq := range lut.cost {
		v := 255 * math.Exp(-float64(dSq)/(2*sigmaCells*sigmaCells))
		lut.cost[dSq] = uint8(math.Round(v))
		if lut.cost[dSq] == 0 && dSq < lut.firstZero {
			lut.firstZero = dSq
		}
	}
	return lut
}

// stampMax writes the disk kernel centred on cell (ix, iy), keeping the
// maximum at overlapping cells. Taking the max instead of summing avoids
// double-counting where scans overlap, which keeps the field a
// distance-to-nearest-hit style cost.
func (l distanceLUT) stampMax(r *Raster, ix, iy int) {
	for dy := -l.radius; dy <= l.radius; dy++ {
		y := iy + dy
		if y < 0 || y >= r.Height {
			continue
		}
		row := y * r.Width
		for dx := -l.radius; dx <= l.radius; dx++ {
			x := ix + dx
			if x < 0 || x >= r.Width {
				continue
			}
			dSq := dx*dx + dy*dy
			if dSq >= l.firstZero {
				continue
			}
			if v := l.cost[dSq]; v > r.cells[row+x] {
				r.cells[row+x] = v
			}
		}
	}
}

// rasterForSnapshot sizes a zeroed raster to the snapshot's padded bounds.
func rasterForSnapshot(scans []*scan.Scan, metersPerPixel, padMeters float64) (*Raster, error) {
	b, ok := scan.SnapshotBounds(scans)
	if !ok {
		return nil, ErrNoScans
	}
	b = b.Pad(padMeters)
	return newRaster(b.MinX, b.MinY, b.MaxX, b.MaxY, metersPerPixel), nil
}
