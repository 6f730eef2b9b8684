// Package scanlog reads and writes scan logs as newline-delimited JSON,
// one scan per line. The format carries the body-frame points plus an
// optional odometry prior, which replayers can feed to the matcher.
package scanlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/scan"
)

// Record is one logged scan.
type Record struct {
	UTime      int64           `json:"utime"`
	SensorType scan.SensorType `json:"sensor_type"`
	Points     []geom.Point    `json:"points"`
	Odom       *geom.Transform `json:"odom,omitempty"`
}

// Writer appends records to a log stream.
type Writer struct {
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write scan record: %w", err)
	}
	return nil
}

// Reader iterates over a log stream record by record.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	// Dense scans can exceed the default 64KiB token limit.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next record, or io.EOF once the log is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		raw := r.sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return Record{}, fmt.Errorf("scan log line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("read scan log: %w", err)
	}
	return Record{}, io.EOF
}
