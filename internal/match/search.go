package match

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/raster"
)

// Saturation flags, per axis, whether the winning grid-search candidate
// lay on the outer boundary of its search window. A saturated axis means
// the true optimum may sit outside the window; callers decide whether to
// retry with an expanded window.
type Saturation struct {
	X, Y, Theta bool
}

// Any reports whether any axis saturated.
func (s Saturation) Any() bool {
	return s.X || s.Y || s.Theta
}

// searchSpace bundles the rasters and lattice spacings one search runs
// against. It is assembled per call from the matcher's current raster
// snapshot, so a concurrent rebuild can never swap rasters mid-search.
type searchSpace struct {
	full     *raster.Raster
	low      *raster.Raster // nil when multi-resolution is disabled
	thetaRes float64
	floorDiv float64 // refinement step floor divisor
}

func newSearchSpace(full, low *raster.Raster, thetaRes float64) searchSpace {
	return searchSpace{full: full, low: low, thetaRes: thetaRes, floorDiv: 8}
}

// priorPenalty evaluates the Gaussian log-likelihood of a candidate's
// offset from the prior, normalised so the prior itself scores zero. The
// prior's Score field is the standard deviation, applied to all three
// axes; distances combine in quadrature for xy.
type priorPenalty struct {
	use    bool
	center geom.Transform
	norm   distuv.Normal
	atZero float64
}

func newPriorPenalty(prior geom.Transform) priorPenalty {
	if prior.Score < geom.MinPriorWeight {
		return priorPenalty{}
	}
	n := distuv.Normal{Mu: 0, Sigma: prior.Score}
	return priorPenalty{use: true, center: prior, norm: n, atZero: n.LogProb(0)}
}

// logFactor returns a value <= 0; exp(logFactor) scales the raw score.
func (pp priorPenalty) logFactor(t geom.Transform) float64 {
	if !pp.use {
		return 0
	}
	dxy := math.Hypot(t.X-pp.center.X, t.Y-pp.center.Y)
	dth := geom.NormalizeAngle(t.Theta - pp.center.Theta)
	return (pp.norm.LogProb(dxy) - pp.atZero) + (pp.norm.LogProb(dth) - pp.atZero)
}

// gridMatch exhaustively evaluates the (x, y, theta) lattice centred on
// prior. When a low-res raster is available, a coarse pass over the full
// window localises the optimum and a full-resolution pass refines around
// it; saturation is judged against the requested window either way.
func (ss searchSpace) gridMatch(points []geom.Point, prior geom.Transform, xRange, yRange, thetaRange float64) (geom.Transform, Saturation) {
	if ss.full == nil || len(points) == 0 {
		out := prior
		out.Score = 0
		return out, Saturation{}
	}
	pp := newPriorPenalty(prior)

	if ss.low == nil {
		return ss.searchOn(ss.full, points, prior, pp, xRange, yRange, thetaRange)
	}

	coarse, sat := ss.searchOn(ss.low, points, prior, pp, xRange, yRange, thetaRange)
	// Refine at full resolution inside one coarse cell (and one theta
	// step) around the coarse optimum. A narrow global optimum hiding
	// between coarse samples is the accepted trade for the speedup.
	lowRes := ss.low.MetersPerPixel
	fine, _ := ss.searchOn(ss.full, points, coarse, pp, lowRes, lowRes, ss.thetaRes)
	return fine, sat
}

// searchOn runs the single-resolution exhaustive search on r. The xy
// lattice spacing is r's resolution; the theta spacing is ss.thetaRes.
func (ss searchSpace) searchOn(r *raster.Raster, points []geom.Point, center geom.Transform, pp priorPenalty, xRange, yRange, thetaRange float64) (geom.Transform, Saturation) {
	step := r.MetersPerPixel
	nx := latticeHalfCount(xRange, step)
	ny := latticeHalfCount(yRange, step)
	nt := latticeHalfCount(thetaRange, ss.thetaRes)

	var (
		found          bool
		bestAdj        float64
		bestRaw        int
		bestD2         int
		bestIX, bestIY int
		bestIT         int
		bestT          geom.Transform
	)

	for it := -nt; it <= nt; it++ {
		theta := geom.NormalizeAngle(center.Theta + float64(it)*ss.thetaRes)
		// One projection per heading; all xy candidates are whole-cell
		// offsets from the window's min corner.
		cx, cy := r.ProjectCells(points, geom.Transform{
			X:     center.X - float64(nx)*step,
			Y:     center.Y - float64(ny)*step,
			Theta: theta,
		})

		for iy := 0; iy <= 2*ny; iy++ {
			for ix := 0; ix <= 2*nx; ix++ {
				raw := r.ScoreOffsets(cx, cy, ix, iy)
				cand := geom.Transform{
					X:     center.X + float64(ix-nx)*step,
					Y:     center.Y + float64(iy-ny)*step,
					Theta: theta,
				}
				adj := float64(raw)
				if pp.use {
					adj = float64(raw) * math.Exp(pp.logFactor(cand))
				}
				// Ties break toward the window centre to avoid spurious
				// drift on flat score plateaus.
				d2 := (ix-nx)*(ix-nx) + (iy-ny)*(iy-ny) + it*it
				if !found || adj > bestAdj || (adj == bestAdj && d2 < bestD2) {
					found = true
					bestAdj = adj
					bestRaw = raw
					bestD2 = d2
					bestIX, bestIY, bestIT = ix, iy, it
					bestT = cand
				}
			}
		}
	}

	sat := Saturation{
		X:     nx > 0 && (bestIX == 0 || bestIX == 2*nx),
		Y:     ny > 0 && (bestIY == 0 || bestIY == 2*ny),
		Theta: nt > 0 && (bestIT == -nt || bestIT == nt),
	}
	bestT.Score = float64(bestRaw)
	return bestT, sat
}

// latticeHalfCount returns the number of lattice steps on each side of
// the window centre. A zero or negative range yields a single candidate.
func latticeHalfCount(rng, step float64) int {
	if rng <= 0 || step <= 0 {
		return 0
	}
	return int(math.Floor(rng / step))
}

// coordAscent hill-climbs one axis at a time from start, shrinking step
// sizes when no axis improves, until the steps fall below a
// resolution-derived floor. The returned score is never below the seed's.
// It is a purely local refinement: the nearest local optimum wins.
func (ss searchSpace) coordAscent(points []geom.Point, start geom.Transform, yThetaOnly bool) geom.Transform {
	if ss.full == nil || len(points) == 0 {
		return start
	}
	r := ss.full

	best := start
	bestScore := r.Score(points, start)

	xyStep := r.MetersPerPixel
	thetaStep := ss.thetaRes
	xyFloor := r.MetersPerPixel / ss.floorDiv
	thetaFloor := ss.thetaRes / ss.floorDiv

	for xyStep >= xyFloor || thetaStep >= thetaFloor {
		improved := false
		for _, d := range []geom.Transform{
			{X: xyStep}, {X: -xyStep},
			{Y: xyStep}, {Y: -xyStep},
			{Theta: thetaStep}, {Theta: -thetaStep},
		} {
			if yThetaOnly && d.X != 0 {
				continue
			}
			cand := geom.Transform{
				X:     best.X + d.X,
				Y:     best.Y + d.Y,
				Theta: geom.NormalizeAngle(best.Theta + d.Theta),
			}
			if s := r.Score(points, cand); s > bestScore {
				bestScore = s
				best = cand
				improved = true
			}
		}
		if !improved {
			xyStep /= 2
			thetaStep /= 2
		}
	}

	best.Score = float64(bestScore)
	return best
}
