// Package contour extracts line segments from ordered 2D scan points.
// It is consumed by the blurred-line raster builder, which rasterises
// wall-like structure instead of individual returns.
package contour

import (
	"math"

	"github.com/banshee-data/scanmatch/internal/geom"
)

// Segment is a line segment between two map-frame points.
type Segment struct {
	A, B geom.Point
}

// Length returns the segment length in meters.
func (s Segment) Length() float64 {
	return geom.Dist(s.A, s.B)
}

// Params tunes contour extraction.
type Params struct {
	// MaxPointJump is the maximum gap in meters between consecutive points
	// that still belong to the same contour. Larger gaps split the run.
	MaxPointJump float64
	// SimplifyTolerance is the maximum perpendicular deviation in meters a
	// point may have from the simplified polyline that replaces it.
	SimplifyTolerance float64
	// MinPoints is the minimum run length that produces segments. Shorter
	// runs (isolated returns, clutter) are dropped.
	MinPoints int
}

// DefaultParams returns extraction parameters suited to indoor planar
// lidar at centimeter resolution.
func DefaultParams() Params {
	return Params{
		MaxPointJump:      0.3,
		SimplifyTolerance: 0.03,
		MinPoints:         3,
	}
}

// Extract splits the ordered point sequence into runs at range jumps,
// simplifies each run to a polyline and returns the polyline edges as
// segments. The input order is assumed to follow the sensor's angular
// sweep, which holds for raw scans and their rigid projections.
func Extract(points []geom.Point, p Params) []Segment {
	if p.MaxPointJump <= 0 || p.MinPoints < 2 {
		dp := DefaultParams()
		if p.MaxPointJump <= 0 {
			p.MaxPointJump = dp.MaxPointJump
		}
		if p.MinPoints < 2 {
			p.MinPoints = dp.MinPoints
		}
	}

	var segs []Segment
	runStart := 0
	flush := func(end int) {
		if end-runStart >= p.MinPoints {
			poly := simplify(points[runStart:end], p.SimplifyTolerance)
			for i := 1; i < len(poly); i++ {
				segs = append(segs, Segment{A: poly[i-1], B: poly[i]})
			}
		}
		runStart = end
	}

	for i := 1; i < len(points); i++ {
		if geom.Dist(points[i-1], points[i]) > p.MaxPointJump {
			flush(i)
		}
	}
	flush(len(points))
	return segs
}

// simplify is Douglas-Peucker polyline simplification.
func simplify(pts []geom.Point, tol float64) []geom.Point {
	if len(pts) <= 2 {
		return pts
	}
	if tol <= 0 {
		return pts
	}

	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		d := perpDist(pts[i], pts[0], pts[len(pts)-1])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= tol {
		return []geom.Point{pts[0], pts[len(pts)-1]}
	}

	left := simplify(pts[:maxIdx+1], tol)
	right := simplify(pts[maxIdx:], tol)
	out := make([]geom.Point, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}

// perpDist returns the perpendicular distance from p to the line through a
// and b, falling back to point distance when a and b coincide.
func perpDist(p, a, b geom.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	n := math.Hypot(dx, dy)
	if n == 0 {
		return geom.Dist(p, a)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / n
}
