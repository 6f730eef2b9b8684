package scanlog

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scanmatch/internal/geom"
	"github.com/banshee-data/scanmatch/internal/scan"
)

func TestWriteReadRoundtrip(t *testing.T) {
	recs := []Record{
		{
			UTime:      1000,
			SensorType: scan.SensorPlanarLidar,
			Points:     []geom.Point{{X: 1, Y: 0}, {X: 1, Y: 0.5}},
			Odom:       &geom.Transform{X: 0.1, Y: 0, Theta: 0.01},
		},
		{
			UTime:      2000,
			SensorType: scan.SensorSynthetic,
			Points:     []geom.Point{{X: 2, Y: -1}},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}

	r := NewReader(&buf)
	var got []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Errorf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	in := "{\"utime\":1,\"sensor_type\":\"synthetic\",\"points\":[]}\n\n" +
		"{\"utime\":2,\"sensor_type\":\"synthetic\",\"points\":[]}\n"
	r := NewReader(strings.NewReader(in))

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.UTime)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.UTime)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderReportsLineOnBadJSON(t *testing.T) {
	in := "{\"utime\":1,\"sensor_type\":\"synthetic\",\"points\":[]}\nnot json\n"
	r := NewReader(strings.NewReader(in))

	_, err := r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
