// Package match implements real-time 2D scan matching against a sliding
// window occupancy map: a coarse exhaustive grid search (optionally
// multi-resolution) followed by local coordinate-ascent refinement, with
// map rebuilds either inline or on a background worker.
package match

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/monitoring"
	"github.com/banshee-data/scanmatch/internal/raster"
	"github.com/banshee-data/scanmatch/internal/scan"
)

// pendingQueueDepth bounds the admission queue. The window capacity caps
// useful backlog well below this; the bound only guards a runaway
// producer against unbounded memory growth.
const pendingQueueDepth = 128

// Stats reports the outcome of the most recent successive match.
type Stats struct {
	Matches     int64
	LastScore   float64
	LastHitFrac float64
	LastSat     Saturation
	LastAdmit   bool
	WindowSize  int
}

// Matcher aligns incoming 2D scans against a locally maintained occupancy
// map. Create with New, release with Close. MatchSuccessive and the
// AddScan family must be called from a single goroutine; concurrent
// readers (CurrentPose, Stats, NumScans) are safe.
type Matcher struct {
	cfg     Config
	logger  *log.Logger
	builder raster.Builder

	ms *mapState

	// Successive-matching state, written only by MatchSuccessive.
	poseMu sync.Mutex
	cur    geom.Transform
	prev   geom.Transform
	stats  Stats

	// Background rebuild machinery (threaded mode). Producers append to
	// pending; the worker is the sole consumer. Closing pending is the
	// kill signal; cancelAdd aborts queued admissions without tearing the
	// worker down.
	pending   chan *scan.Scan
	cancelAdd atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	// Flush accounting: queued/processed counters under flushMu let
	// Flush wait for the worker to drain without polling.
	flushMu   sync.Mutex
	flushCond *sync.Cond
	queued    int64
	processed int64
}

// New validates cfg, fills defaults and returns a ready Matcher. In
// threaded mode the background rebuild worker is started immediately.
func New(cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	builder := cfg.Builder
	if builder == nil {
		builder = raster.NewDistanceLUTBuilder(0)
	}

	m := &Matcher{
		cfg:     cfg,
		logger:  logger,
		builder: builder,
		ms:      newMapState(cfg.WindowCapacity),
		cur:     cfg.StartPose,
		prev:    cfg.StartPose,
	}
	m.flushCond = sync.NewCond(&m.flushMu)

	if cfg.UseThreads {
		m.pending = make(chan *scan.Scan, pendingQueueDepth)
		m.done = make(chan struct{})
		go m.rebuildLoop()
	}

	if cfg.Verbose {
		monitoring.Logf("[Matcher] res=%.3fm theta=%.4frad multires=%d threads=%v strategy=%s mode=%s",
			cfg.MetersPerPixel, cfg.ThetaResolution, cfg.DownsampleFactor,
			cfg.UseThreads, builder.Name(), cfg.Mode)
	}
	return m, nil
}

// Close shuts the matcher down. In threaded mode it signals the worker,
// waits for in-flight rebuilds to finish and joins it. Close may be
// called more than once; no new scans may be queued after the first call.
func (m *Matcher) Close() {
	m.closeOnce.Do(func() {
		if m.pending == nil {
			return
		}
		close(m.pending)
		<-m.done
	})
}

// IsUsingAccel reports whether an accelerated correlation back-end is
// registered. Absence is not an error; scoring falls back to the
// reference loop.
func (m *Matcher) IsUsingAccel() bool {
	return raster.KernelActive()
}

// NumScans returns the number of scans resident in the window.
func (m *Matcher) NumScans() int {
	return m.ms.numScans()
}

// Bounds returns the bounding box of the window's points.
func (m *Matcher) Bounds() (scan.Bounds, bool) {
	return m.ms.bounds()
}

// WindowScans returns the scans currently resident in the window,
// oldest first. The returned slice is a snapshot; the scans themselves
// are shared and must not be mutated.
func (m *Matcher) WindowScans() []*scan.Scan {
	return m.ms.snapshot()
}

// CurrentPose returns the latest accepted pose.
func (m *Matcher) CurrentPose() geom.Transform {
	m.poseMu.Lock()
	defer m.poseMu.Unlock()
	return m.cur
}

// Stats returns a snapshot of the most recent match outcome.
func (m *Matcher) Stats() Stats {
	m.poseMu.Lock()
	defer m.poseMu.Unlock()
	s := m.stats
	s.WindowSize = m.ms.numScans()
	return s
}

// CurrentRaster returns the full-resolution raster currently visible to
// matching, or nil before the first rebuild. Debug consumers only.
func (m *Matcher) CurrentRaster() *raster.Raster {
	full, _ := m.ms.rasters()
	return full
}

// ClearScans empties the window and drops the rasters. When deleteScans
// is false the evicted scans are returned so a caller that retained
// ownership can keep using them.
func (m *Matcher) ClearScans(deleteScans bool) []*scan.Scan {
	scans := m.ms.clear()
	if deleteScans {
		return nil
	}
	return scans
}

// AddScan admits a scan synchronously. With rebuildNow false the scan
// joins the window without touching the rasters, for callers batching
// several admissions before one rebuild (see Rebuild).
func (m *Matcher) AddScan(points []geom.Point, t geom.Transform, sensorType scan.SensorType, utime int64, rebuildNow bool) error {
	s := scan.New(points, t, sensorType, utime)
	return m.addScans([]*scan.Scan{s}, rebuildNow)
}

// Rebuild synchronously regenerates the rasters from the current window.
func (m *Matcher) Rebuild() error {
	start := time.Now()
	err := m.ms.rebuild(m.builder, m.cfg.MetersPerPixel, m.cfg.lowResMetersPerPixel())
	if err == nil {
		monitoring.ObserveRebuild(time.Since(start))
	}
	return err
}

// AddScanToBeProcessed queues a scan for background admission and
// rebuild. In synchronous mode it falls back to AddScan. The call never
// blocks on a rebuild in progress; it only appends and signals.
func (m *Matcher) AddScanToBeProcessed(points []geom.Point, t geom.Transform, sensorType scan.SensorType, utime int64) error {
	if m.pending == nil {
		return m.AddScan(points, t, sensorType, utime, true)
	}
	m.enqueue(scan.New(points, t, sensorType, utime))
	return nil
}

// CancelPendingAdds aborts admissions that are queued but not yet
// processed. The worker stays up; upstream uses this when it decides
// after the fact that a scan should not be added (e.g. excessive tilt).
func (m *Matcher) CancelPendingAdds() {
	m.cancelAdd.Store(true)
}

// Flush blocks until every scan queued so far has been processed or
// cancelled. Synchronous mode returns immediately.
func (m *Matcher) Flush() {
	if m.pending == nil {
		return
	}
	m.flushMu.Lock()
	defer m.flushMu.Unlock()
	for m.processed < m.queued {
		m.flushCond.Wait()
	}
}

func (m *Matcher) enqueue(s *scan.Scan) {
	m.flushMu.Lock()
	m.queued++
	m.flushMu.Unlock()
	m.pending <- s
}

func (m *Matcher) markProcessed(n int) {
	m.flushMu.Lock()
	m.processed += int64(n)
	m.flushCond.Broadcast()
	m.flushMu.Unlock()
}

// rebuildLoop is the background worker: it drains the pending queue,
// admits the batch into the window and rebuilds the rasters into fresh
// instances that are swapped in atomically. Matching calls keep reading
// whatever raster is visible, even if slightly stale.
func (m *Matcher) rebuildLoop() {
	defer close(m.done)
	for s := range m.pending {
		batch := []*scan.Scan{s}
	drain:
		for {
			select {
			case next, ok := <-m.pending:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}

		if m.cancelAdd.Swap(false) {
			if m.cfg.Verbose {
				monitoring.Logf("[Matcher] cancelled %d pending admission(s)", len(batch))
			}
			m.markProcessed(len(batch))
			continue
		}

		if err := m.addScans(batch, true); err != nil {
			m.logger.Printf("background rebuild failed: %v", err)
		}
		m.markProcessed(len(batch))
	}
}

func (m *Matcher) addScans(batch []*scan.Scan, rebuild bool) error {
	start := time.Now()
	err := m.ms.addScans(batch, m.builder, m.cfg.MetersPerPixel, m.cfg.lowResMetersPerPixel(), rebuild)
	if err != nil {
		return err
	}
	monitoring.AddAdmitted(len(batch))
	monitoring.SetWindowSize(m.ms.numScans())
	if rebuild {
		monitoring.ObserveRebuild(time.Since(start))
	}
	return nil
}

// GridMatch aligns points against the current map with an exhaustive
// lattice search in a window of the given half-ranges centred on prior.
// This is the one-shot interface used for loop closure. A nil prior
// centres the window on the identity. With an empty map or point set the
// prior is returned with a zero score and clear saturation flags.
func (m *Matcher) GridMatch(points []geom.Point, prior *geom.Transform, xRange, yRange, thetaRange float64) (geom.Transform, Saturation) {
	center := geom.Transform{}
	if prior != nil {
		center = *prior
	}
	full, low := m.ms.rasters()
	ss := newSearchSpace(full, low, m.cfg.ThetaResolution)
	return ss.gridMatch(points, center, xRange, yRange, thetaRange)
}

// CoordAscentMatch refines start by per-axis hill climbing against the
// current map. start must already be within roughly one grid cell of the
// optimum; normally it is a grid-search result.
func (m *Matcher) CoordAscentMatch(points []geom.Point, start geom.Transform) geom.Transform {
	full, low := m.ms.rasters()
	ss := newSearchSpace(full, low, m.cfg.ThetaResolution)
	return ss.coordAscent(points, start, m.cfg.Mode.yThetaOnly())
}

// MatchSuccessive performs one step of incremental tracking: predict a
// prior from the motion model (or take the supplied one), search per the
// configured mode with a one-shot window expansion on saturation, decide
// admission by hit fraction, and update the pose pair. The returned
// transform's Score is the final raw correlation score; callers compare
// scores across calls rather than against absolute thresholds.
func (m *Matcher) MatchSuccessive(points []geom.Point, sensorType scan.SensorType, utime int64, preventAddScan bool, prior *geom.Transform) geom.Transform {
	start := time.Now()

	center := m.predict(prior)
	full, low := m.ms.rasters()
	ss := newSearchSpace(full, low, m.cfg.ThetaResolution)

	res, sat := m.runSearch(ss, points, center)

	// Admission: a scan whose points mostly hit existing structure adds
	// no information and is discarded after scoring.
	hitFrac := 0.0
	if full != nil && len(points) > 0 {
		_, hits := full.ScoreHits(points, res, m.cfg.HitThresh)
		hitFrac = float64(hits) / float64(len(points))
	}
	admit := !preventAddScan && hitFrac < m.cfg.AddScanHitThresh
	if admit {
		if err := m.admit(points, res, sensorType, utime); err != nil {
			m.logger.Printf("scan admission failed: %v", err)
			admit = false
		}
	}

	m.poseMu.Lock()
	m.prev = m.cur
	m.cur = res
	m.stats.Matches++
	m.stats.LastScore = res.Score
	m.stats.LastHitFrac = hitFrac
	m.stats.LastSat = sat
	m.stats.LastAdmit = admit
	m.poseMu.Unlock()

	monitoring.ObserveMatch(time.Since(start))
	if m.cfg.Verbose {
		monitoring.Logf("[Matcher] utime=%d pose=(%.3f,%.3f,%.3f) score=%.0f hitFrac=%.2f admit=%v sat=%+v",
			utime, res.X, res.Y, res.Theta, res.Score, hitFrac, admit, sat)
	}
	return res
}

// predict produces the search-window centre. An explicit prior wins;
// otherwise the configured motion model extrapolates from the accepted
// pose pair. The centre's Score carries the prior standard deviation (or
// zero for centring only).
func (m *Matcher) predict(prior *geom.Transform) geom.Transform {
	if prior != nil {
		return *prior
	}
	m.poseMu.Lock()
	cur, prev := m.cur, m.prev
	m.poseMu.Unlock()

	var center geom.Transform
	if m.cfg.StationaryMotionModel {
		center = cur
	} else {
		center = geom.Extrapolate(cur, prev)
	}
	center.Score = m.cfg.MotionModelPriorWeight
	return center
}

// runSearch applies the configured matching mode, retrying once with the
// window expanded toward the configured maxima on any saturated axis.
func (m *Matcher) runSearch(ss searchSpace, points []geom.Point, center geom.Transform) (geom.Transform, Saturation) {
	if !m.cfg.Mode.usesGrid() {
		res := ss.coordAscent(points, center, m.cfg.Mode.yThetaOnly())
		return res, Saturation{}
	}

	xr, yr := m.cfg.InitialSearchRangeXY, m.cfg.InitialSearchRangeXY
	tr := m.cfg.InitialSearchRangeTheta

	res, sat := ss.gridMatch(points, center, xr, yr, tr)
	if sat.Any() && (m.cfg.MaxSearchRangeXY > xr || m.cfg.MaxSearchRangeTheta > tr) {
		if sat.X {
			xr = m.cfg.MaxSearchRangeXY
		}
		if sat.Y {
			yr = m.cfg.MaxSearchRangeXY
		}
		if sat.Theta {
			tr = m.cfg.MaxSearchRangeTheta
		}
		if m.cfg.Verbose {
			monitoring.Logf("[Matcher] search saturated %+v, retrying with xr=%.2f yr=%.2f tr=%.3f", sat, xr, yr, tr)
		}
		res, sat = ss.gridMatch(points, center, xr, yr, tr)
	}

	if m.cfg.Mode.usesCoordAscent() {
		res = ss.coordAscent(points, res, m.cfg.Mode.yThetaOnly())
	}
	return res, sat
}

// admit hands the matched scan to the window, via the background worker
// in threaded mode.
func (m *Matcher) admit(points []geom.Point, pose geom.Transform, sensorType scan.SensorType, utime int64) error {
	s := scan.New(points, pose, sensorType, utime)
	if m.pending != nil {
		m.enqueue(s)
		return nil
	}
	return m.addScans([]*scan.Scan{s}, true)
}
