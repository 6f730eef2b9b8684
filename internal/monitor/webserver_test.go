package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/match"
	"github.com/banshee-data/scanmatch/internal/scan"
)

func newTestMatcher(t *testing.T) *match.Matcher {
	t.Helper()
	cfg := match.DefaultConfig()
	cfg.Verbose = false
	m, err := match.New(cfg)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func squarePoints() []geom.Point {
	var pts []geom.Point
	for i := 0; i < 40; i++ {
		f := float64(i) / 39
		pts = append(pts,
			geom.Point{X: -2 + 4*f, Y: -2},
			geom.Point{X: -2 + 4*f, Y: 2},
			geom.Point{X: -2, Y: -2 + 4*f},
			geom.Point{X: 2, Y: -2 + 4*f},
		)
	}
	return pts
}

func TestHealthHandler(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: ":0"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ws.setupRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatsHandlerNoMatcher(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: ":0"})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	ws.setupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHandlerReportsWindow(t *testing.T) {
	m := newTestMatcher(t)
	m.MatchSuccessive(squarePoints(), scan.SensorSynthetic, 1000, false, nil)

	ws := NewWebServer(WebServerConfig{Address: ":0", Matcher: m})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	ws.setupRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["window_size"])
	assert.Contains(t, body, "bounds")
	assert.Contains(t, body, "pose")
}

func TestMapChartRendersHTML(t *testing.T) {
	m := newTestMatcher(t)
	m.MatchSuccessive(squarePoints(), scan.SensorSynthetic, 1000, false, nil)

	ws := NewWebServer(WebServerConfig{Address: ":0", Matcher: m})

	req := httptest.NewRequest(http.MethodGet, "/debug/map", nil)
	rec := httptest.NewRecorder()
	ws.setupRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Scan Window Map")
}

func TestMapChartEmptyWindow(t *testing.T) {
	m := newTestMatcher(t)
	ws := NewWebServer(WebServerConfig{Address: ":0", Matcher: m})

	req := httptest.NewRequest(http.MethodGet, "/debug/map", nil)
	rec := httptest.NewRecorder()
	ws.setupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRasterImageHandler(t *testing.T) {
	m := newTestMatcher(t)
	m.MatchSuccessive(squarePoints(), scan.SensorSynthetic, 1000, false, nil)

	ws := NewWebServer(WebServerConfig{Address: ":0", Matcher: m})

	req := httptest.NewRequest(http.MethodGet, "/debug/raster", nil)
	rec := httptest.NewRecorder()
	ws.setupRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}
