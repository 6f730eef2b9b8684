package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanmatch/internal/geom"
)

func TestRaycastHitsNearestWall(t *testing.T) {
	w := defaultWorld()

	// From the origin looking +x the partition is closer than the outer
	// wall, but the doorway gap (-1 < y < 1) lets the beam through to the
	// east wall at x=5.
	rng, ok := w.raycast(geom.Point{X: -2, Y: 0}, 0, 30)
	require.True(t, ok)
	assert.InDelta(t, 7.0, rng, 1e-9)

	// Below the doorway the partition blocks at x=0.
	rng, ok = w.raycast(geom.Point{X: -2, Y: -2}, 0, 30)
	require.True(t, ok)
	assert.InDelta(t, 2.0, rng, 1e-9)

	// Above the doorway the upper partition segment blocks too; a hit in
	// the middle of a segment must not be mistaken for one on its
	// reversed extension.
	rng, ok = w.raycast(geom.Point{X: -2, Y: 2.5}, 0, 30)
	require.True(t, ok)
	assert.InDelta(t, 2.0, rng, 1e-9)
}

func TestRaycastMiss(t *testing.T) {
	w := &world{walls: []wall{
		{geom.Point{X: 1, Y: -1}, geom.Point{X: 1, Y: 1}},
	}}

	_, ok := w.raycast(geom.Point{}, math.Pi, 30)
	assert.False(t, ok)
}

func TestScanFromBodyFrame(t *testing.T) {
	w := defaultWorld()
	pose := geom.Transform{X: -2, Y: -2, Theta: math.Pi / 2}

	pts := w.scanFrom(pose, 181, math.Pi, 30, nil)
	require.NotEmpty(t, pts)

	// Re-projecting body points through the pose must land on a wall.
	for _, wp := range pose.ApplyAll(pts) {
		onWall := math.Abs(wp.X-5) < 1e-6 || math.Abs(wp.X+5) < 1e-6 ||
			math.Abs(wp.Y-4) < 1e-6 || math.Abs(wp.Y+4) < 1e-6 ||
			math.Abs(wp.X) < 1e-6 ||
			(wp.X > 2.5-1e-6 && wp.X < 3.0+1e-6 && wp.Y > -1.5-1e-6 && wp.Y < -1.0+1e-6)
		assert.True(t, onWall, "point %+v not on any wall", wp)
	}
}

func TestTrajectoryStaysInRoom(t *testing.T) {
	for i := 0; i < 600; i++ {
		p := trajectoryPose(float64(i) * 0.1)
		assert.Less(t, math.Abs(p.X), 5.0)
		assert.Less(t, math.Abs(p.Y), 4.0)
	}
}
