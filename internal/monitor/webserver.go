// Package monitor exposes an HTTP debug interface for a running matcher:
// health and stats endpoints, Prometheus metrics, and visual map/raster
// inspection pages.
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/scanmatch/internal/match"
)

// WebServer handles the HTTP interface for monitoring a matcher.
type WebServer struct {
	address string
	matcher *match.Matcher
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Matcher *match.Matcher
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		matcher: config.Matcher,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
// when ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/debug/map", ws.handleMapChart)
	mux.HandleFunc("/debug/raster", ws.handleRasterImage)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStats reports the matcher's current state as JSON.
func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if ws.matcher == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no matcher attached")
		return
	}

	stats := ws.matcher.Stats()
	pose := ws.matcher.CurrentPose()

	resp := map[string]interface{}{
		"matches":       stats.Matches,
		"last_score":    stats.LastScore,
		"last_hit_frac": stats.LastHitFrac,
		"last_admit":    stats.LastAdmit,
		"window_size":   stats.WindowSize,
		"pose":          pose,
		"using_accel":   ws.matcher.IsUsingAccel(),
	}
	if b, ok := ws.matcher.Bounds(); ok {
		resp["bounds"] = map[string]float64{
			"min_x": b.MinX, "min_y": b.MinY,
			"max_x": b.MaxX, "max_y": b.MaxY,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
