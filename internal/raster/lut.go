package raster

import "github.com/banshee-data/scanmatch/internal/scan"

// DistanceLUTBuilder is the exact-lookup construction: a precomputed
// squared-distance-to-cost table is stamped as a disk around every
// occupied cell, taking the max at overlaps. It is the default strategy
// and the sharpest of the three.
type DistanceLUTBuilder struct {
	// SigmaMeters controls the cost falloff; <= 0 selects
	// DefaultKernelSigma.
	SigmaMeters float64
}

// NewDistanceLUTBuilder returns the exact-lookup strategy.
func NewDistanceLUTBuilder(sigmaMeters float64) *DistanceLUTBuilder {
	if sigmaMeters <= 0 {
		sigmaMeters = DefaultKernelSigma
	}
	return &DistanceLUTBuilder{SigmaMeters: sigmaMeters}
}

// Name implements Builder.
func (b *DistanceLUTBuilder) Name() string { return "distance_lut" }

// Build implements Builder.
func (b *DistanceLUTBuilder) Build(scans []*scan.Scan, metersPerPixel float64) (*Raster, error) {
	lut := makeDistanceLUT(b.SigmaMeters, metersPerPixel)
	r, err := rasterForSnapshot(scans, metersPerPixel, float64(lut.radius)*metersPerPixel)
	if err != nil {
		return nil, err
	}
	for _, s := range scans {
		for _, p := range s.WorldPoints() {
			ix, iy := r.CellOf(p.X, p.Y)
			lut.stampMax(r, ix, iy)
		}
	}
	return r, nil
}
