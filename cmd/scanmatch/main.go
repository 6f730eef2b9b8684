// Command scanmatch replays a scan log through the matcher, producing a
// trajectory. It can optionally serve a debug HTTP interface while running.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/scanmatch/internal/config"
	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/match"
	"github.com/banshee-data/scanmatch/internal/monitor"
	"github.com/banshee-data/scanmatch/internal/scan"
	"github.com/banshee-data/scanmatch/internal/scanlog"
	"github.com/banshee-data/scanmatch/internal/trajectory"
)

var (
	logPath     = flag.String("log", "", "Path to the scan log (JSONL, required)")
	tuningPath  = flag.String("config", "", "Path to a tuning config JSON file")
	dbFile      = flag.String("db", "trajectory.db", "Path to the trajectory SQLite database (empty to disable)")
	listen      = flag.String("listen", "", "HTTP debug listen address (empty to disable)")
	threaded    = flag.Bool("threads", false, "Rebuild rasters on a background worker")
	verbose     = flag.Bool("verbose", false, "Log every match result")
	logInterval = flag.Int("log-interval", 50, "Statistics logging interval in scans")
	realtime    = flag.Bool("realtime", false, "Pace replay by scan timestamps")
)

func main() {
	flag.Parse()

	if *logPath == "" {
		log.Fatal("scan log path is required (-log)")
	}

	cfg := match.DefaultConfig()
	cfg.UseThreads = *threaded
	cfg.Verbose = *verbose
	if *tuningPath != "" {
		tc, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		cfg, err = tc.Apply(cfg)
		if err != nil {
			log.Fatalf("Invalid tuning config: %v", err)
		}
	}

	var store *trajectory.Store
	var runID string
	if *dbFile != "" {
		var err error
		store, err = trajectory.NewStore(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open trajectory database: %v", err)
		}
		defer store.Close()

		runID, err = store.BeginRun(*logPath)
		if err != nil {
			log.Fatalf("Failed to begin trajectory run: %v", err)
		}
		log.Printf("Recording trajectory run %s to %s", runID, *dbFile)
	}

	f, err := os.Open(*logPath)
	if err != nil {
		log.Fatalf("Failed to open scan log: %v", err)
	}
	defer f.Close()

	m, err := match.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create matcher: %v", err)
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if *listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{Address: *listen, Matcher: m})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				log.Printf("Web server error: %v", err)
			}
		}()
	}

	start := time.Now()
	matched := replay(ctx, m, scanlog.NewReader(f), store, runID)

	stats := m.Stats()
	log.Printf("Matched %d scans in %v (window=%d, last score=%.1f, last hit frac=%.2f)",
		matched, time.Since(start).Round(time.Millisecond),
		stats.WindowSize, stats.LastScore, stats.LastHitFrac)

	stop()
	wg.Wait()
}

// replay feeds the log through MatchSuccessive until EOF or cancellation,
// returning the number of scans matched.
func replay(ctx context.Context, m *match.Matcher, r *scanlog.Reader, store *trajectory.Store, runID string) int {
	matched := 0
	var lastUTime int64
	for {
		select {
		case <-ctx.Done():
			log.Println("replay interrupted")
			return matched
		default:
		}

		rec, err := r.Next()
		if err == io.EOF {
			return matched
		}
		if err != nil {
			log.Fatalf("Scan log read error: %v", err)
		}

		if *realtime && lastUTime != 0 && rec.UTime > lastUTime {
			time.Sleep(time.Duration(rec.UTime-lastUTime) * time.Microsecond)
		}
		lastUTime = rec.UTime

		sensorType := rec.SensorType
		if sensorType == "" {
			sensorType = scan.SensorPlanarLidar
		}

		var prior *geom.Transform
		if rec.Odom != nil {
			prior = rec.Odom
		}

		pose := m.MatchSuccessive(rec.Points, sensorType, rec.UTime, false, prior)
		matched++

		if store != nil {
			stats := m.Stats()
			err := store.RecordPose(runID, trajectory.PoseRecord{
				UTime:       rec.UTime,
				X:           pose.X,
				Y:           pose.Y,
				Theta:       pose.Theta,
				Score:       pose.Score,
				HitFraction: stats.LastHitFrac,
				Admitted:    stats.LastAdmit,
			})
			if err != nil {
				log.Fatalf("Failed to record pose: %v", err)
			}
		}

		if *logInterval > 0 && matched%*logInterval == 0 {
			log.Printf("scan %d: pose=(%.3f, %.3f, %.3f) score=%.1f",
				matched, pose.X, pose.Y, pose.Theta, pose.Score)
		}
	}
}
