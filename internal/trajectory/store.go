// Package trajectory persists the pose estimates produced by successive
// matching to SQLite, one row per matched scan, grouped by run. The
// occupancy map itself is never persisted; only the odometry output is.
package trajectory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// PoseRecord is one matched scan's outcome.
type PoseRecord struct {
	UTime       int64
	X           float64
	Y           float64
	Theta       float64
	Score       float64
	HitFraction float64
	Admitted    bool
}

// Store wraps the trajectory database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the trajectory database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			started_unix_nanos BIGINT NOT NULL,
			description       TEXT
		);
		CREATE TABLE IF NOT EXISTS poses (
			run_id            TEXT NOT NULL,
			utime             BIGINT NOT NULL,
			x                 DOUBLE NOT NULL,
			y                 DOUBLE NOT NULL,
			theta             DOUBLE NOT NULL,
			score             DOUBLE NOT NULL,
			hit_fraction      DOUBLE NOT NULL,
			admitted          INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_poses_run ON poses(run_id, utime);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create trajectory schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun registers a new run and returns its ID.
func (s *Store) BeginRun(description string) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, started_unix_nanos, description) VALUES (?, ?, ?)`,
		runID, time.Now().UnixNano(), description,
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return runID, nil
}

// RecordPose appends one pose to a run.
func (s *Store) RecordPose(runID string, rec PoseRecord) error {
	admitted := 0
	if rec.Admitted {
		admitted = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO poses (run_id, utime, x, y, theta, score, hit_fraction, admitted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.UTime, rec.X, rec.Y, rec.Theta, rec.Score, rec.HitFraction, admitted,
	)
	if err != nil {
		return fmt.Errorf("record pose: %w", err)
	}
	return nil
}

// ListPoses returns a run's poses in capture order.
func (s *Store) ListPoses(runID string) ([]PoseRecord, error) {
	rows, err := s.db.Query(
		`SELECT utime, x, y, theta, score, hit_fraction, admitted
		 FROM poses WHERE run_id = ? ORDER BY utime`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list poses: %w", err)
	}
	defer rows.Close()

	var out []PoseRecord
	for rows.Next() {
		var rec PoseRecord
		var admitted int
		if err := rows.Scan(&rec.UTime, &rec.X, &rec.Y, &rec.Theta, &rec.Score, &rec.HitFraction, &admitted); err != nil {
			return nil, fmt.Errorf("scan pose row: %w", err)
		}
		rec.Admitted = admitted != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}
