package monitor

import (
	"fmt"
	"log"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scanmatch/internal/raster"
)

// rasterGrid adapts a Raster to gonum/plot's GridXYZ so it can be
// rendered as a heat map. X/Y report cell-center world coordinates.
type rasterGrid struct {
	r *raster.Raster
}

func (g rasterGrid) Dims() (c, r int) { return g.r.Width, g.r.Height }

func (g rasterGrid) Z(c, r int) float64 { return float64(g.r.At(c, r)) }

func (g rasterGrid) X(c int) float64 {
	x, _ := g.r.CellCenter(c, 0)
	return x
}

func (g rasterGrid) Y(r int) float64 {
	_, y := g.r.CellCenter(0, r)
	return y
}

// handleRasterImage renders the current occupancy raster as a PNG heat map.
func (ws *WebServer) handleRasterImage(w http.ResponseWriter, r *http.Request) {
	if ws.matcher == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no matcher attached")
		return
	}

	ras := ws.matcher.CurrentRaster()
	if ras == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no raster built yet")
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Occupancy raster %dx%d @ %.3f m/px", ras.Width, ras.Height, ras.MetersPerPixel)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	hm := plotter.NewHeatMap(rasterGrid{r: ras}, palette.Heat(12, 255))
	hm.Min = 0
	hm.Max = 255
	p.Add(hm)

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render raster: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		log.Printf("raster image write error: %v", err)
	}
}
