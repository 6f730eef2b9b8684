// Package scan owns the laser scan value type and the bounded sliding
// window of scans that backs the local occupancy map.
package scan

import (
	"github.com/google/uuid"

	"github.com/banshee-data/scanmatch/internal/geom"
)

// SensorType tags the sensor family that produced a scan. It travels with
// the scan so downstream consumers can apply per-sensor handling without
// re-plumbing configuration.
type SensorType string

const (
	// SensorPlanarLidar is a standard horizontally mounted 2D lidar.
	SensorPlanarLidar SensorType = "planar_lidar"
	// SensorDepthCameraLine is a single extracted row of a depth camera.
	SensorDepthCameraLine SensorType = "depth_camera_line"
	// SensorSynthetic marks simulator-generated scans.
	SensorSynthetic SensorType = "synthetic"
)

// Scan bundles one sensor revolution: the body-frame points, the map-frame
// pose they were matched at, the producing sensor type and the capture
// timestamp. A Scan is immutable after construction; the point slices are
// owned by the Scan and must not be modified by callers.
type Scan struct {
	ID         uuid.UUID
	Points     []geom.Point
	Pose       geom.Transform
	SensorType SensorType
	UTime      int64 // capture timestamp, microseconds

	world []geom.Point // Points projected by Pose, computed once
}

// New copies the given body-frame points, projects them by pose into the
// map frame and returns the assembled immutable Scan.
func New(points []geom.Point, pose geom.Transform, sensorType SensorType, utime int64) *Scan {
	pts := make([]geom.Point, len(points))
	copy(pts, points)
	return &Scan{
		ID:         uuid.New(),
		Points:     pts,
		Pose:       pose,
		SensorType: sensorType,
		UTime:      utime,
		world:      pose.ApplyAll(pts),
	}
}

// WorldPoints returns the map-frame projection of the scan's points,
// computed at construction time. Callers must treat the slice as read-only.
func (s *Scan) WorldPoints() []geom.Point {
	return s.world
}

// NumPoints returns the number of points in the scan.
func (s *Scan) NumPoints() int {
	return len(s.Points)
}
