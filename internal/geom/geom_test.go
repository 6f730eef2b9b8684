package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func TestApply(t *testing.T) {
	tr := Transform{X: 1, Y: 2, Theta: math.Pi / 2}
	got := tr.Apply(Point{X: 1, Y: 0})
	assert.InDelta(t, 1.0, got.X, tol)
	assert.InDelta(t, 3.0, got.Y, tol)
}

func TestComposeInvertRoundTrip(t *testing.T) {
	a := Transform{X: 0.5, Y: -1.25, Theta: 0.7}
	b := Transform{X: -2, Y: 3, Theta: -1.1}

	// Applying a.Compose(b) is the same as applying b then a.
	p := Point{X: 1.5, Y: -0.5}
	assert.InDelta(t, a.Apply(b.Apply(p)).X, a.Compose(b).Apply(p).X, tol)
	assert.InDelta(t, a.Apply(b.Apply(p)).Y, a.Compose(b).Apply(p).Y, tol)

	// a composed with its inverse is identity.
	id := a.Compose(a.Invert())
	assert.InDelta(t, 0, id.X, tol)
	assert.InDelta(t, 0, id.Y, tol)
	assert.InDelta(t, 0, id.Theta, tol)
}

func TestExtrapolate(t *testing.T) {
	prev := Transform{X: 0, Y: 0, Theta: 0}
	cur := Transform{X: 1, Y: 0.5, Theta: 0.1}
	pred := Extrapolate(cur, prev)
	assert.InDelta(t, 2.0, pred.X, tol)
	assert.InDelta(t, 1.0, pred.Y, tol)
	assert.InDelta(t, 0.2, pred.Theta, tol)
}

func TestExtrapolateStationary(t *testing.T) {
	cur := Transform{X: 3, Y: -2, Theta: 1.2}
	pred := Extrapolate(cur, cur)
	assert.InDelta(t, cur.X, pred.X, tol)
	assert.InDelta(t, cur.Y, pred.Y, tol)
	assert.InDelta(t, cur.Theta, pred.Theta, tol)
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-0.5, -0.5},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAngle(c.in), tol, "in=%v", c.in)
	}
}
