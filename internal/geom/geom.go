// Package geom provides the 2D geometry primitives shared by the scan
// matching pipeline: points in the sensor/body frame and rigid-body
// transforms with an attached confidence score.
package geom

import "math"

// MinPriorWeight is the confidence floor below which a Transform supplied
// as a search prior is used only to centre the search window. At or above
// this value the Score field is interpreted as the standard deviation of
// a Gaussian prior on the pose.
const MinPriorWeight = 0.1

// Point is a 2D coordinate in meters. Points are captured once and never
// mutated afterwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is a rigid-body pose (x, y, heading) in the map frame.
//
// Score is overloaded the same way on input and output paths:
// as a match result it carries the raw correlation score of the winning
// candidate; as a search prior it carries the standard deviation of the
// motion-model estimate (see MinPriorWeight).
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
	Score float64 `json:"score"`
}

// Apply projects a body-frame point into the map frame.
func (t Transform) Apply(p Point) Point {
	s, c := math.Sincos(t.Theta)
	return Point{
		X: c*p.X - s*p.Y + t.X,
		Y: s*p.X + c*p.Y + t.Y,
	}
}

// ApplyAll projects a body-frame point set into the map frame, returning a
// freshly allocated slice.
func (t Transform) ApplyAll(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]Point, len(pts))
	s, c := math.Sincos(t.Theta)
	for i, p := range pts {
		out[i] = Point{
			X: c*p.X - s*p.Y + t.X,
			Y: s*p.X + c*p.Y + t.Y,
		}
	}
	return out
}

// Compose returns the transform equivalent to applying u first, then t.
// The Score of the result is t's Score.
func (t Transform) Compose(u Transform) Transform {
	s, c := math.Sincos(t.Theta)
	return Transform{
		X:     c*u.X - s*u.Y + t.X,
		Y:     s*u.X + c*u.Y + t.Y,
		Theta: NormalizeAngle(t.Theta + u.Theta),
		Score: t.Score,
	}
}

// Invert returns the inverse transform. Score is preserved.
func (t Transform) Invert() Transform {
	s, c := math.Sincos(t.Theta)
	return Transform{
		X:     -(c*t.X + s*t.Y),
		Y:     -(-s*t.X + c*t.Y),
		Theta: NormalizeAngle(-t.Theta),
		Score: t.Score,
	}
}

// Extrapolate returns the constant-velocity prediction obtained by applying
// the delta between prev and cur once more on top of cur. This is the
// motion model used between consecutive scans when no external odometry
// prior is supplied.
func Extrapolate(cur, prev Transform) Transform {
	dTheta := NormalizeAngle(cur.Theta - prev.Theta)
	return Transform{
		X:     2*cur.X - prev.X,
		Y:     2*cur.Y - prev.Y,
		Theta: NormalizeAngle(cur.Theta + dTheta),
	}
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
