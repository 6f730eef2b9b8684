package match

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/scanmatch/internal/raster"
	"github.com/banshee-data/scanmatch/internal/scan"
)

// mapState owns the sliding scan window and the double-buffered occupancy
// rasters, and structurally enforces the lock order: scansMu is always
// acquired before rasterMu. All methods that need both take them in that
// order; no method exposes a path that could take them reversed. The
// pending-queue machinery lives in Matcher and never holds either lock.
//
// Rasters are immutable; a rebuild constructs new instances while holding
// only scansMu (so the window cannot change under the build), then takes
// rasterMu just long enough to swap them in. Readers snapshot the raster
// pointers under rasterMu and score against the snapshot afterwards, so a
// match in flight keeps the pre-swap raster alive until it finishes; the
// garbage collector provides the quiescence barrier the double-buffer
// free would otherwise need.
type mapState struct {
	scansMu sync.Mutex // held first whenever both locks are needed
	window  *scan.Window

	rasterMu sync.RWMutex
	full     *raster.Raster
	low      *raster.Raster // nil unless multi-resolution is enabled
}

func newMapState(capacity int) *mapState {
	return &mapState{window: scan.NewWindow(capacity)}
}

// rasters snapshots the current raster pair.
func (ms *mapState) rasters() (full, low *raster.Raster) {
	ms.rasterMu.RLock()
	defer ms.rasterMu.RUnlock()
	return ms.full, ms.low
}

// numScans returns the resident window size.
func (ms *mapState) numScans() int {
	ms.scansMu.Lock()
	defer ms.scansMu.Unlock()
	return ms.window.Len()
}

// bounds returns the window's point bounding box.
func (ms *mapState) bounds() (scan.Bounds, bool) {
	ms.scansMu.Lock()
	defer ms.scansMu.Unlock()
	return ms.window.ComputeBounds()
}

// snapshot returns the resident scans, oldest first.
func (ms *mapState) snapshot() []*scan.Scan {
	ms.scansMu.Lock()
	defer ms.scansMu.Unlock()
	return ms.window.Snapshot()
}

// addScans appends scans to the window and, when rebuild is set,
// regenerates the rasters before returning. Deferred rebuilds are used
// when several scans arrive back to back and only the final state
// matters.
func (ms *mapState) addScans(scans []*scan.Scan, b raster.Builder, metersPerPixel, lowResMPP float64, rebuild bool) error {
	ms.scansMu.Lock()
	defer ms.scansMu.Unlock()
	for _, s := range scans {
		ms.window.Add(s)
	}
	if !rebuild {
		return nil
	}
	return ms.rebuildScansLocked(b, metersPerPixel, lowResMPP)
}

// rebuild regenerates the rasters from the current window.
func (ms *mapState) rebuild(b raster.Builder, metersPerPixel, lowResMPP float64) error {
	ms.scansMu.Lock()
	defer ms.scansMu.Unlock()
	return ms.rebuildScansLocked(b, metersPerPixel, lowResMPP)
}

// rebuildScansLocked requires scansMu. The window is frozen for the whole
// build; no scan can be admitted or evicted mid-build.
func (ms *mapState) rebuildScansLocked(b raster.Builder, metersPerPixel, lowResMPP float64) error {
	snap := ms.window.Snapshot()
	if len(snap) == 0 {
		ms.rasterMu.Lock()
		ms.full, ms.low = nil, nil
		ms.rasterMu.Unlock()
		return nil
	}

	var (
		full, low *raster.Raster
		g         errgroup.Group
	)
	g.Go(func() error {
		var err error
		full, err = b.Build(snap, metersPerPixel)
		return err
	})
	if lowResMPP > 0 {
		g.Go(func() error {
			// Independent pass at the coarse resolution; decimating the
			// full-resolution raster would compound blur artifacts.
			var err error
			low, err = b.Build(snap, lowResMPP)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("rebuild raster (%s): %w", b.Name(), err)
	}

	ms.rasterMu.Lock()
	ms.full, ms.low = full, low
	ms.rasterMu.Unlock()
	return nil
}

// clear empties the window and drops the rasters, returning the evicted
// scans so a caller that retains ownership can keep them.
func (ms *mapState) clear() []*scan.Scan {
	ms.scansMu.Lock()
	defer ms.scansMu.Unlock()
	out := ms.window.Clear()
	ms.rasterMu.Lock()
	ms.full, ms.low = nil, nil
	ms.rasterMu.Unlock()
	return out
}
