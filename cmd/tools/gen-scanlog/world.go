package main

import (
	"math"

	"github.com/banshee-data/scanmatch/internal/geom"
)

// wall is a line segment obstacle in world coordinates.
type wall struct {
	a, b geom.Point
}

// world is a set of walls a simulated lidar can see.
type world struct {
	walls []wall
}

// defaultWorld is a 10x8m room with an interior partition and a pillar,
// enough structure to keep the matcher constrained in x, y and theta.
func defaultWorld() *world {
	return &world{walls: []wall{
		// Outer room.
		{geom.Point{X: -5, Y: -4}, geom.Point{X: 5, Y: -4}},
		{geom.Point{X: 5, Y: -4}, geom.Point{X: 5, Y: 4}},
		{geom.Point{X: 5, Y: 4}, geom.Point{X: -5, Y: 4}},
		{geom.Point{X: -5, Y: 4}, geom.Point{X: -5, Y: -4}},
		// Partition with a doorway gap.
		{geom.Point{X: 0, Y: -4}, geom.Point{X: 0, Y: -1}},
		{geom.Point{X: 0, Y: 1}, geom.Point{X: 0, Y: 4}},
		// Pillar.
		{geom.Point{X: 2.5, Y: -1.5}, geom.Point{X: 3.0, Y: -1.5}},
		{geom.Point{X: 3.0, Y: -1.5}, geom.Point{X: 3.0, Y: -1.0}},
		{geom.Point{X: 3.0, Y: -1.0}, geom.Point{X: 2.5, Y: -1.0}},
		{geom.Point{X: 2.5, Y: -1.0}, geom.Point{X: 2.5, Y: -1.5}},
	}}
}

// raycast returns the range from origin along heading to the nearest wall,
// or maxRange with ok=false when nothing is hit.
func (w *world) raycast(origin geom.Point, heading, maxRange float64) (float64, bool) {
	dx := math.Cos(heading)
	dy := math.Sin(heading)

	best := maxRange
	hit := false
	for _, wl := range w.walls {
		ex := wl.b.X - wl.a.X
		ey := wl.b.Y - wl.a.Y
		denom := dx*ey - dy*ex
		if math.Abs(denom) < 1e-12 {
			continue
		}
		ox := wl.a.X - origin.X
		oy := wl.a.Y - origin.Y
		t := (ox*ey - oy*ex) / denom
		u := (ox*dy - oy*dx) / denom
		if t > 1e-9 && u >= 0 && u <= 1 && t < best {
			best = t
			hit = true
		}
	}
	return best, hit
}

// scanFrom simulates one planar scan from pose: beams evenly spaced over
// fov radians, body-frame points, optional Gaussian range noise via
// noise(). Beams that hit nothing are dropped.
func (w *world) scanFrom(pose geom.Transform, beams int, fov, maxRange float64, noise func() float64) []geom.Point {
	pts := make([]geom.Point, 0, beams)
	for i := 0; i < beams; i++ {
		rel := -fov/2 + fov*float64(i)/float64(beams-1)
		rng, ok := w.raycast(geom.Point{X: pose.X, Y: pose.Y}, pose.Theta+rel, maxRange)
		if !ok {
			continue
		}
		if noise != nil {
			rng += noise()
		}
		pts = append(pts, geom.Point{
			X: rng * math.Cos(rel),
			Y: rng * math.Sin(rel),
		})
	}
	return pts
}
