package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanmatch/internal/geom"
)

func mkScan(t *testing.T, utime int64, pts ...geom.Point) *Scan {
	t.Helper()
	return New(pts, geom.Transform{}, SensorSynthetic, utime)
}

func TestWindowBound(t *testing.T) {
	w := NewWindow(3)

	var added []*Scan
	for i := int64(0); i < 7; i++ {
		s := mkScan(t, i, geom.Point{X: float64(i)})
		added = append(added, s)
		evicted := w.Add(s)
		if i < 3 {
			assert.Nil(t, evicted)
		} else {
			require.NotNil(t, evicted)
			assert.Equal(t, added[i-3].ID, evicted.ID)
		}
		assert.LessOrEqual(t, w.Len(), 3)
	}

	// Contents are exactly the most recent admissions, oldest first.
	snap := w.Snapshot()
	require.Len(t, snap, 3)
	for i, s := range snap {
		assert.Equal(t, added[4+i].ID, s.ID)
	}
}

func TestWindowDuplicatePosesAllowed(t *testing.T) {
	w := NewWindow(4)
	p := geom.Point{X: 1, Y: 1}
	w.Add(mkScan(t, 1, p))
	w.Add(mkScan(t, 2, p))
	assert.Equal(t, 2, w.Len())
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(2)
	a := mkScan(t, 1, geom.Point{X: 1})
	b := mkScan(t, 2, geom.Point{X: 2})
	w.Add(a)
	w.Add(b)

	out := w.Clear()
	require.Len(t, out, 2)
	assert.Equal(t, a.ID, out[0].ID)
	assert.Equal(t, b.ID, out[1].ID)
	assert.Equal(t, 0, w.Len())

	_, ok := w.ComputeBounds()
	assert.False(t, ok)
}

func TestComputeBounds(t *testing.T) {
	w := NewWindow(8)
	w.Add(New([]geom.Point{{X: 1, Y: 0}}, geom.Transform{X: 1}, SensorPlanarLidar, 1))
	w.Add(New([]geom.Point{{X: -2, Y: 3}}, geom.Transform{}, SensorPlanarLidar, 2))

	b, ok := w.ComputeBounds()
	require.True(t, ok)
	assert.InDelta(t, -2.0, b.MinX, 1e-9)
	assert.InDelta(t, 2.0, b.MaxX, 1e-9) // pose X=1 shifts first point to x=2
	assert.InDelta(t, 0.0, b.MinY, 1e-9)
	assert.InDelta(t, 3.0, b.MaxY, 1e-9)

	padded := b.Pad(0.5)
	assert.InDelta(t, -2.5, padded.MinX, 1e-9)
	assert.InDelta(t, 3.5, padded.MaxY, 1e-9)
}

func TestScanWorldPointsImmutable(t *testing.T) {
	src := []geom.Point{{X: 1, Y: 2}}
	s := New(src, geom.Transform{X: 10}, SensorPlanarLidar, 0)
	src[0].X = 99 // caller mutates its own buffer

	assert.InDelta(t, 11.0, s.WorldPoints()[0].X, 1e-9)
	assert.InDelta(t, 1.0, s.Points[0].X, 1e-9)
}
