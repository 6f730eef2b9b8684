package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scanmatch",
		Name:      "match_duration_seconds",
		Help:      "Wall time of one successive-matching step.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scanmatch",
		Name:      "raster_rebuild_duration_seconds",
		Help:      "Wall time of one occupancy raster rebuild.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	admittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scanmatch",
		Name:      "scans_admitted_total",
		Help:      "Scans admitted into the sliding window.",
	})
	windowSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scanmatch",
		Name:      "window_scans",
		Help:      "Scans currently resident in the sliding window.",
	})
)

// ObserveMatch records the duration of one matching step.
func ObserveMatch(d time.Duration) { matchDuration.Observe(d.Seconds()) }

// ObserveRebuild records the duration of one raster rebuild.
func ObserveRebuild(d time.Duration) { rebuildDuration.Observe(d.Seconds()) }

// AddAdmitted counts scans admitted into the window.
func AddAdmitted(n int) { admittedTotal.Add(float64(n)) }

// SetWindowSize publishes the current window occupancy.
func SetWindowSize(n int) { windowSize.Set(float64(n)) }
