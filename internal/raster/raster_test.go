package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/scan"
)

const res = 0.02

func singlePointScan(p geom.Point) []*scan.Scan {
	return []*scan.Scan{scan.New([]geom.Point{p}, geom.Transform{}, scan.SensorSynthetic, 0)}
}

func wallScan(t *testing.T) *scan.Scan {
	t.Helper()
	var pts []geom.Point
	for i := 0; i < 50; i++ {
		pts = append(pts, geom.Point{X: float64(i) * 0.02, Y: 1})
	}
	return scan.New(pts, geom.Transform{}, scan.SensorSynthetic, 0)
}

func TestBuildEmptySnapshot(t *testing.T) {
	for _, b := range []Builder{
		NewDistanceLUTBuilder(0),
		NewGaussianBuilder(0),
		NewBlurredLineBuilder(0),
	} {
		_, err := b.Build(nil, res)
		assert.ErrorIs(t, err, ErrNoScans, b.Name())
	}
}

// All three strategies must place their peak within one cell of a lone
// point's position.
func TestStrategyPeakEquivalence(t *testing.T) {
	target := geom.Point{X: 0.5, Y: -0.25}
	for _, b := range []Builder{
		NewDistanceLUTBuilder(0),
		NewGaussianBuilder(0),
		NewBlurredLineBuilder(0),
	} {
		t.Run(b.Name(), func(t *testing.T) {
			r, err := b.Build(singlePointScan(target), res)
			require.NoError(t, err)

			ix, iy, val := r.PeakCell()
			assert.Equal(t, uint8(255), val)

			px, py := r.CellCenter(ix, iy)
			assert.LessOrEqual(t, math.Abs(px-target.X), res)
			assert.LessOrEqual(t, math.Abs(py-target.Y), res)
		})
	}
}

func TestScoreSelfIsMaximal(t *testing.T) {
	s := wallScan(t)
	r, err := NewDistanceLUTBuilder(0).Build([]*scan.Scan{s}, res)
	require.NoError(t, err)

	score := r.Score(s.Points, s.Pose)
	assert.Equal(t, r.MaxScore(s.NumPoints()), score)
}

// Scoring and building must agree on which cell a point falls in, even
// for coordinates landing exactly on cell boundaries. A mismatch in the
// last ulp puts points one cell away from their stamped kernel.
func TestProjectCellsMatchesCellOf(t *testing.T) {
	s := wallScan(t)
	r, err := NewDistanceLUTBuilder(0).Build([]*scan.Scan{s}, res)
	require.NoError(t, err)

	cx, cy := r.ProjectCells(s.Points, geom.Transform{})
	for i, p := range s.Points {
		ix, iy := r.CellOf(p.X, p.Y)
		assert.Equal(t, ix, int(cx[i]), "x cell for point %v", p)
		assert.Equal(t, iy, int(cy[i]), "y cell for point %v", p)
	}
}

func TestScoreDropsWithOffset(t *testing.T) {
	s := wallScan(t)
	r, err := NewDistanceLUTBuilder(0).Build([]*scan.Scan{s}, res)
	require.NoError(t, err)

	aligned := r.Score(s.Points, geom.Transform{})
	shifted := r.Score(s.Points, geom.Transform{Y: 0.5})
	assert.Greater(t, aligned, shifted)
}

func TestScoreHits(t *testing.T) {
	s := wallScan(t)
	r, err := NewDistanceLUTBuilder(0).Build([]*scan.Scan{s}, res)
	require.NoError(t, err)

	_, hits := r.ScoreHits(s.Points, geom.Transform{}, 128)
	assert.Equal(t, s.NumPoints(), hits)

	_, hits = r.ScoreHits(s.Points, geom.Transform{Y: 5}, 128)
	assert.Zero(t, hits)
}

func TestBoundsPaddedByKernelRadius(t *testing.T) {
	r, err := NewDistanceLUTBuilder(0).Build(singlePointScan(geom.Point{}), res)
	require.NoError(t, err)

	// The kernel must fit inside the raster without clipping.
	lut := makeDistanceLUT(DefaultKernelSigma, res)
	assert.LessOrEqual(t, r.OriginX, -float64(lut.radius)*res+1e-9)
	assert.GreaterOrEqual(t, r.Width, 2*lut.radius)
}

func TestScoreOffsetsMatchesScore(t *testing.T) {
	s := wallScan(t)
	r, err := NewGaussianBuilder(0).Build([]*scan.Scan{s}, res)
	require.NoError(t, err)

	tr := geom.Transform{X: 0.1, Y: -0.06, Theta: 0.04}
	cx, cy := r.ProjectCells(s.Points, tr)
	assert.Equal(t, r.Score(s.Points, tr), r.ScoreOffsets(cx, cy, 0, 0))
}

func TestAccelKernelRegistration(t *testing.T) {
	assert.False(t, KernelActive())

	called := false
	RegisterKernel(func(r *Raster, cx, cy []int32, ox, oy int) int {
		called = true
		return r.scoreOffsetsRef(cx, cy, ox, oy)
	})
	defer RegisterKernel(nil)
	assert.True(t, KernelActive())

	s := wallScan(t)
	r, err := NewDistanceLUTBuilder(0).Build([]*scan.Scan{s}, res)
	require.NoError(t, err)
	cx, cy := r.ProjectCells(s.Points, geom.Transform{})
	ref := r.scoreOffsetsRef(cx, cy, 0, 0)
	assert.Equal(t, ref, r.ScoreOffsets(cx, cy, 0, 0))
	assert.True(t, called)
}

func TestMultiResolutionIndependentPasses(t *testing.T) {
	// The low-res raster is built by an independent pass at the coarse
	// resolution; its peak must still coincide with the point.
	target := geom.Point{X: 0.3, Y: 0.7}
	coarse := res * 8

	r, err := NewDistanceLUTBuilder(0).Build(singlePointScan(target), coarse)
	require.NoError(t, err)

	ix, iy, val := r.PeakCell()
	assert.Equal(t, uint8(255), val)
	px, py := r.CellCenter(ix, iy)
	assert.LessOrEqual(t, math.Abs(px-target.X), coarse)
	assert.LessOrEqual(t, math.Abs(py-target.Y), coarse)
}
