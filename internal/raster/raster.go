// Package raster builds and scores 2D occupancy rasters from scan
// windows. A raster encodes, per cell, a 0-255 cost that a candidate
// alignment accumulates for every projected point landing in that cell;
// higher totals mean better alignment.
//
// Rasters are immutable once built. A rebuild always produces a new
// instance; the match layer swaps whole rasters, never mutates one a
// concurrent reader might be scoring against.
package raster

import (
	"math"

	"github.com/banshee-data/scanmatch/internal/geom"
)

// Raster is an immutable occupancy cost grid at a fixed resolution.
type Raster struct {
	OriginX, OriginY float64 // world coordinates of the corner of cell (0,0)
	MetersPerPixel   float64
	Width, Height    int

	cells []uint8 // row-major, len = Width*Height
}

// newRaster allocates a zeroed raster covering the given bounds.
func newRaster(minX, minY, maxX, maxY, metersPerPixel float64) *Raster {
	w := int(math.Ceil((maxX-minX)/metersPerPixel)) + 1
	h := int(math.Ceil((maxY-minY)/metersPerPixel)) + 1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Raster{
		OriginX:        minX,
		OriginY:        minY,
		MetersPerPixel: metersPerPixel,
		Width:          w,
		Height:         h,
		cells:          make([]uint8, w*h),
	}
}

// CellOf maps a world coordinate to cell indices. The result may lie
// outside the raster; callers check bounds.
func (r *Raster) CellOf(x, y float64) (ix, iy int) {
	ix = int(math.Floor((x - r.OriginX) / r.MetersPerPixel))
	iy = int(math.Floor((y - r.OriginY) / r.MetersPerPixel))
	return ix, iy
}

// At returns the cost at cell (ix, iy), or zero outside the raster.
func (r *Raster) At(ix, iy int) uint8 {
	if ix < 0 || iy < 0 || ix >= r.Width || iy >= r.Height {
		return 0
	}
	return r.cells[iy*r.Width+ix]
}

// Cells exposes the raw cell buffer for accelerated correlation kernels
// and debug rendering. The buffer must be treated as read-only.
func (r *Raster) Cells() []uint8 {
	return r.cells
}

// ProjectCells projects body-frame points by t and returns their cell
// coordinates. Out-of-raster cells are kept as-is; scoring treats them as
// zero-cost. The two slices are parallel to points.
func (r *Raster) ProjectCells(points []geom.Point, t geom.Transform) (cx, cy []int32) {
	cx = make([]int32, len(points))
	cy = make([]int32, len(points))
	s, c := math.Sincos(t.Theta)
	// Quantization must match CellOf exactly: multiplying by a
	// precomputed reciprocal differs in the last ulp and shifts boundary
	// points into the neighbouring cell, away from their stamped kernel.
	for i, p := range points {
		wx := c*p.X - s*p.Y + t.X
		wy := s*p.X + c*p.Y + t.Y
		cx[i] = int32(math.Floor((wx - r.OriginX) / r.MetersPerPixel))
		cy[i] = int32(math.Floor((wy - r.OriginY) / r.MetersPerPixel))
	}
	return cx, cy
}

// ScoreOffsets sums the cell costs of the projected point set shifted by
// (ox, oy) whole cells. This is the inner loop of the grid search: one
// projection per candidate heading, then pure integer offsets across the
// translational window. An accelerated kernel, when registered, replaces
// the reference loop.
func (r *Raster) ScoreOffsets(cx, cy []int32, ox, oy int) int {
	if k := activeKernel(); k != nil {
		return k(r, cx, cy, ox, oy)
	}
	return r.scoreOffsetsRef(cx, cy, ox, oy)
}

func (r *Raster) scoreOffsetsRef(cx, cy []int32, ox, oy int) int {
	sum := 0
	w := int32(r.Width)
	h := int32(r.Height)
	for i := range cx {
		x := cx[i] + int32(ox)
		y := cy[i] + int32(oy)
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		sum += int(r.cells[y*w+x])
	}
	return sum
}

// Score sums cell costs for the point set projected by t.
func (r *Raster) Score(points []geom.Point, t geom.Transform) int {
	cx, cy := r.ProjectCells(points, t)
	return r.ScoreOffsets(cx, cy, 0, 0)
}

// ScoreHits scores like Score and additionally counts points whose cell
// cost reaches hitThresh. The hit count feeds the scan-admission decision:
// a scan whose points mostly hit existing structure adds little and is
// not worth a rebuild.
func (r *Raster) ScoreHits(points []geom.Point, t geom.Transform, hitThresh uint8) (score, hits int) {
	cx, cy := r.ProjectCells(points, t)
	w := int32(r.Width)
	h := int32(r.Height)
	for i := range cx {
		if cx[i] < 0 || cy[i] < 0 || cx[i] >= w || cy[i] >= h {
			continue
		}
		v := r.cells[cy[i]*w+cx[i]]
		score += int(v)
		if v >= hitThresh {
			hits++
		}
	}
	return score, hits
}

// MaxScore returns the best possible correlation score for n points.
func (r *Raster) MaxScore(n int) int {
	return 255 * n
}

// PeakCell returns the coordinates and value of the highest-cost cell,
// scanning row-major so ties resolve to the lowest index.
func (r *Raster) PeakCell() (ix, iy int, val uint8) {
	for i, v := range r.cells {
		if v > val {
			val = v
			ix = i % r.Width
			iy = i / r.Width
		}
	}
	return ix, iy, val
}

// CellCenter returns the world coordinates of the centre of cell (ix, iy).
func (r *Raster) CellCenter(ix, iy int) (x, y float64) {
	x = r.OriginX + (float64(ix)+0.5)*r.MetersPerPixel
	y = r.OriginY + (float64(iy)+0.5)*r.MetersPerPixel
	return x, y
}
