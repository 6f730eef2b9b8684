package scan

// Bounds is an axis-aligned bounding box in map-frame meters.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Pad returns bounds grown by m meters on every side.
func (b Bounds) Pad(m float64) Bounds {
	return Bounds{MinX: b.MinX - m, MinY: b.MinY - m, MaxX: b.MaxX + m, MaxY: b.MaxY + m}
}

// Window is the bounded, chronologically ordered collection of scans that
// the current occupancy raster is built from. Insertion past capacity
// evicts the oldest entry (FIFO). Duplicate poses are allowed; the window
// is a history, not a set.
//
// Window performs no locking itself; the matcher serialises access (the
// scan-list lock is always taken before the raster lock).
type Window struct {
	capacity int
	scans    []*Scan
}

// NewWindow creates a window holding at most capacity scans. A capacity
// below 1 is treated as 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{capacity: capacity}
}

// Add appends s and returns the evicted scan, if the capacity bound forced
// one out, so the caller can decide whether to release it.
func (w *Window) Add(s *Scan) (evicted *Scan) {
	w.scans = append(w.scans, s)
	if len(w.scans) > w.capacity {
		evicted = w.scans[0]
		copy(w.scans, w.scans[1:])
		w.scans[len(w.scans)-1] = nil
		w.scans = w.scans[:len(w.scans)-1]
	}
	return evicted
}

// Clear empties the window and returns the scans it held, oldest first.
func (w *Window) Clear() []*Scan {
	out := w.scans
	w.scans = nil
	return out
}

// Len returns the number of resident scans.
func (w *Window) Len() int {
	return len(w.scans)
}

// Capacity returns the configured maximum number of scans.
func (w *Window) Capacity() int {
	return w.capacity
}

// Snapshot returns the resident scans oldest first. The returned slice is
// a copy; the Scans themselves are shared and immutable.
func (w *Window) Snapshot() []*Scan {
	out := make([]*Scan, len(w.scans))
	copy(out, w.scans)
	return out
}

// ComputeBounds returns the bounding box of all map-frame points across
// the window. ok is false when the window holds no points.
func (w *Window) ComputeBounds() (b Bounds, ok bool) {
	first := true
	for _, s := range w.scans {
		for _, p := range s.WorldPoints() {
			if first {
				b = Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
				first = false
				continue
			}
			if p.X < b.MinX {
				b.MinX = p.X
			}
			if p.X > b.MaxX {
				b.MaxX = p.X
			}
			if p.Y < b.MinY {
				b.MinY = p.Y
			}
			if p.Y > b.MaxY {
				b.MaxY = p.Y
			}
		}
	}
	return b, !first
}

// boundsOf is ComputeBounds over an arbitrary scan slice; shared with the
// raster builders which operate on frozen snapshots rather than the live
// window.
func boundsOf(scans []*Scan) (b Bounds, ok bool) {
	w := Window{scans: scans}
	return w.ComputeBounds()
}

// SnapshotBounds returns the bounding box of a frozen scan snapshot.
func SnapshotBounds(scans []*Scan) (Bounds, bool) {
	return boundsOf(scans)
}
