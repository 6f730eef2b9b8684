package raster

import (
	"math"

	"github.com/banshee-data/scanmatch/internal/contour"
	"github.com/banshee-data/scanmatch/internal/scan"
)

// BlurredLineBuilder extracts line segments from each scan's points and
// rasterises blurred lines rather than individual returns. Wall-like
// structure is represented continuously, which reduces sensitivity to
// sampling density along surfaces.
type BlurredLineBuilder struct {
	// SigmaMeters controls the blur width around each line; <= 0 selects
	// DefaultKernelSigma.
	SigmaMeters float64
	// Contour tunes segment extraction; the zero value selects
	// contour.DefaultParams.
	Contour contour.Params
}

// NewBlurredLineBuilder returns the blurred-line strategy.
func NewBlurredLineBuilder(sigmaMeters float64) *BlurredLineBuilder {
	if sigmaMeters <= 0 {
		sigmaMeters = DefaultKernelSigma
	}
	return &BlurredLineBuilder{
		SigmaMeters: sigmaMeters,
		Contour:     contour.DefaultParams(),
	}
}

// Name implements Builder.
func (b *BlurredLineBuilder) Name() string { return "blurred_line" }

// Build implements Builder.
func (b *BlurredLineBuilder) Build(scans []*scan.Scan, metersPerPixel float64) (*Raster, error) {
	lut := makeDistanceLUT(b.SigmaMeters, metersPerPixel)
	r, err := rasterForSnapshot(scans, metersPerPixel, float64(lut.radius)*metersPerPixel)
	if err != nil {
		return nil, err
	}

	for _, s := range scans {
		segs := contour.Extract(s.WorldPoints(), b.Contour)
		if len(segs) == 0 {
			// Cluttered or sparse scans may yield no contours; fall back to
			// point stamping so the scan still contributes evidence.
			for _, p := range s.WorldPoints() {
				ix, iy := r.CellOf(p.X, p.Y)
				lut.stampMax(r, ix, iy)
			}
			continue
		}
		for _, seg := range segs {
			b.stampSegment(r, lut, seg)
		}
	}
	return r, nil
}

// stampSegment walks the segment at sub-cell steps, stamping the blur
// kernel with max semantics at each sample.
func (b *BlurredLineBuilder) stampSegment(r *Raster, lut distanceLUT, seg contour.Segment) {
	length := seg.Length()
	step := r.MetersPerPixel * 0.5
	n := int(math.Ceil(length/step)) + 1
	for i := 0; i < n; i++ {
		f := 0.0
		if n > 1 {
			f = float64(i) / float64(n-1)
		}
		x := seg.A.X + f*(seg.B.X-seg.A.X)
		y := seg.A.Y + f*(seg.B.Y-seg.A.Y)
		ix, iy := r.CellOf(x, y)
		lut.stampMax(r, ix, iy)
	}
}
