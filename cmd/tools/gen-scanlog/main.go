// Command gen-scanlog generates synthetic scan logs for testing replay.
// It raycasts a simulated lidar through a walled world along a smooth
// trajectory and writes the scans as JSONL.
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/scan"
	"github.com/banshee-data/scanmatch/internal/scanlog"
)

func main() {
	output := flag.String("o", "sample.jsonl", "output path")
	scans := flag.Int("n", 200, "number of scans")
	beams := flag.Int("beams", 360, "beams per scan")
	hz := flag.Float64("hz", 10, "scan rate used for timestamps")
	noiseSigma := flag.Float64("noise", 0.005, "range noise sigma in meters")
	odomSigma := flag.Float64("odom-noise", 0.01, "odometry noise sigma in meters")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	noise := func() float64 { return rng.NormFloat64() * *noiseSigma }

	w := defaultWorld()
	writer := scanlog.NewWriter(f)
	dt := 1.0 / *hz

	for i := 0; i < *scans; i++ {
		t := float64(i) * dt
		pose := trajectoryPose(t)

		pts := w.scanFrom(pose, *beams, 2*math.Pi*260/360, 30, noise)

		// Odometry prior: the true pose plus noise, so drift stays
		// bounded per step.
		odom := pose
		odom.X += rng.NormFloat64() * *odomSigma
		odom.Y += rng.NormFloat64() * *odomSigma
		odom.Theta += rng.NormFloat64() * *odomSigma
		odom.Score = 0.3

		rec := scanlog.Record{
			UTime:      int64(t * 1e6),
			SensorType: scan.SensorSynthetic,
			Points:     pts,
			Odom:       &odom,
		}
		if err := writer.Write(rec); err != nil {
			log.Fatalf("Failed to write scan: %v", err)
		}

		if (i+1)%50 == 0 {
			log.Printf("%d/%d scans", i+1, *scans)
		}
	}

	log.Printf("✓ Created: %s", *output)
}

// trajectoryPose is a slow loop through the room: an ellipse in x/y with
// the heading tangent to the path.
func trajectoryPose(t float64) geom.Transform {
	const period = 60.0
	phase := 2 * math.Pi * t / period
	x := 2.5 * math.Cos(phase)
	y := 1.5 * math.Sin(phase)
	// Tangent direction of the ellipse.
	theta := math.Atan2(1.5*math.Cos(phase), -2.5*math.Sin(phase))
	return geom.Transform{X: x, Y: y, Theta: theta}
}
