package poselog

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logFrame(t *testing.T, ts time.Time) *m1pose.PoseFrame {
	t.Helper()
	lms := make([]m1pose.Landmark, 0, m1pose.SchemaMoveNet17.PointCount())
	for i, name := range m1pose.SchemaMoveNet17.Names() {
		lms = append(lms, m1pose.Landmark{
			Name:       name,
			X:          0.1 + float64(i)*0.01,
			Y:          0.2 + float64(i)*0.01,
			Visibility: 0.9,
		})
	}
	frame, err := m1pose.NewPoseFrame(m1pose.SchemaMoveNet17, ts, lms, 0.95)
	require.NoError(t, err)
	return frame
}

func TestWriteThenDecode(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	frames := []*m1pose.PoseFrame{
		logFrame(t, t0),
		logFrame(t, t0.Add(33*time.Millisecond)),
		logFrame(t, t0.Add(66*time.Millisecond)),
	}
	for _, f := range frames {
		require.NoError(t, w.Write(f))
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"), "one line per frame")

	d := NewDecoder(&buf)
	for i, want := range frames {
		got, err := d.Next()
		require.NoError(t, err, "frame %d", i)
		if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(m1pose.PoseFrame{})); diff != "" {
			t.Errorf("frame %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderSkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(logFrame(t, time.Unix(100, 0))))
	require.NoError(t, w.Flush())
	input := "\n" + buf.String() + "\n\n"

	d := NewDecoder(strings.NewReader(input))
	_, err := d.Next()
	require.NoError(t, err)
	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderReportsLineNumbers(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(logFrame(t, time.Unix(100, 0))))
	require.NoError(t, w.Flush())
	buf.WriteString("{not json}\n")

	d := NewDecoder(&buf)
	_, err := d.Next()
	require.NoError(t, err)
	_, err = d.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecoderRejectsSchemaViolations(t *testing.T) {
	// A frame claiming blazepose-33 but carrying 17 landmarks must fail
	// validation on decode, not propagate downstream.
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(logFrame(t, time.Unix(100, 0))))
	require.NoError(t, w.Flush())
	line := strings.Replace(buf.String(), "movenet-17", "blazepose-33", 1)

	d := NewDecoder(strings.NewReader(line))
	_, err := d.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, m1pose.ErrInsufficientLandmarks)
}
