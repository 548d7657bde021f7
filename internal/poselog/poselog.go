// Package poselog reads and writes pose-frame logs: one JSON object per
// line, each carrying a schema name, timestamp, and landmark array. The
// format is the capture boundary of the system; everything upstream of
// it (camera, pose model) is external.
package poselog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
)

// maxLineBytes bounds a single JSONL record. A 33-landmark frame with
// generous float formatting stays well under this.
const maxLineBytes = 256 * 1024

// record is the wire form of one frame.
type record struct {
	Schema     m1pose.Schema     `json:"schema"`
	Timestamp  time.Time         `json:"timestamp"`
	Landmarks  []m1pose.Landmark `json:"landmarks"`
	Confidence float64           `json:"confidence,omitempty"`
}

// Writer appends pose frames to a JSONL stream.
type Writer struct {
	bw  *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w for frame-per-line output.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{bw: bw, enc: json.NewEncoder(bw)}
}

// Write appends one frame as a single JSON line.
func (w *Writer) Write(frame *m1pose.PoseFrame) error {
	return w.enc.Encode(record{
		Schema:     frame.Schema,
		Timestamp:  frame.Timestamp,
		Landmarks:  frame.Landmarks,
		Confidence: frame.Confidence,
	})
}

// Flush writes any buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Decoder reads pose frames from a JSONL stream, validating each record
// against its declared schema.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder wraps r for frame-per-line input.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{sc: sc}
}

// Next returns the next frame, or io.EOF when the stream is exhausted.
// Blank lines are skipped; malformed or schema-invalid records fail with
// the offending line number.
func (d *Decoder) Next() (*m1pose.PoseFrame, error) {
	for d.sc.Scan() {
		d.line++
		raw := d.sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("poselog line %d: %w", d.line, err)
		}
		frame, err := m1pose.NewPoseFrame(rec.Schema, rec.Timestamp, rec.Landmarks, rec.Confidence)
		if err != nil {
			return nil, fmt.Errorf("poselog line %d: %w", d.line, err)
		}
		return frame, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
