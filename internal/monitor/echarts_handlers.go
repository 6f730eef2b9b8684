package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleMapChart renders a quick scatter plot (HTML) of the window's world
// points using go-echarts. This is a debugging-only endpoint (no auth) to
// eyeball matched scan alignment without exporting the raster.
// Query params:
//   - max_points (optional; default 8000) to reduce payload size
func (ws *WebServer) handleMapChart(w http.ResponseWriter, r *http.Request) {
	if ws.matcher == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no matcher attached")
		return
	}

	scans := ws.matcher.WindowScans()
	if len(scans) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no scans in window")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	total := 0
	for _, s := range scans {
		total += s.NumPoints()
	}
	stride := 1
	if total > maxPoints {
		stride = int(math.Ceil(float64(total) / float64(maxPoints)))
	}

	// Color points by scan age so fresh scans stand out against the map.
	data := make([]opts.ScatterData, 0, total/stride+1)
	maxAbs := 0.0
	idx := 0
	for si, s := range scans {
		for _, p := range s.WorldPoints() {
			if idx%stride != 0 {
				idx++
				continue
			}
			idx++
			if math.Abs(p.X) > maxAbs {
				maxAbs = math.Abs(p.X)
			}
			if math.Abs(p.Y) > maxAbs {
				maxAbs = math.Abs(p.Y)
			}
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, si}})
		}
	}

	pose := ws.matcher.CurrentPose()
	poseData := []opts.ScatterData{{Value: []interface{}{pose.X, pose.Y, len(scans)}, SymbolSize: 12}}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan Window Map", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Scan Window Map", Subtitle: fmt.Sprintf("scans=%d points=%d stride=%d", len(scans), len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(len(scans)),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("window", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("pose", poseData)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
