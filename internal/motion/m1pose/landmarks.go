package m1pose

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Landmark is a single tracked anatomical point for one frame, produced
// by the external pose-estimation model. Coordinates are normalized image
// units (consistent within a session); Z may be zero for 2D topologies.
type Landmark struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// Vec returns the landmark position as a 3D vector.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// PoseFrame is an ordered collection of landmarks plus a monotonic
// timestamp and the schema that produced them. One per capture tick;
// never mutated after construction.
type PoseFrame struct {
	Schema     Schema     `json:"schema"`
	Timestamp  time.Time  `json:"timestamp"`
	Landmarks  []Landmark `json:"landmarks"`
	Confidence float64    `json:"confidence,omitempty"` // overall model confidence, 0 when unknown

	index map[string]int
}

// NewPoseFrame validates and assembles a PoseFrame. The landmark slice
// must match the schema's point count and ordering; names are indexed
// once here so downstream lookups are O(1).
func NewPoseFrame(schema Schema, ts time.Time, landmarks []Landmark, confidence float64) (*PoseFrame, error) {
	if !schema.Known() {
		return nil, fmt.Errorf("%w: unknown schema %q", ErrSchemaUnsupported, schema)
	}
	if got, want := len(landmarks), schema.PointCount(); got != want {
		return nil, fmt.Errorf("%w: schema %s expects %d landmarks, got %d",
			ErrInsufficientLandmarks, schema, want, got)
	}
	idx := make(map[string]int, len(landmarks))
	for i, lm := range landmarks {
		if lm.Visibility < 0 || lm.Visibility > 1 {
			return nil, fmt.Errorf("%w: landmark %q visibility %g outside [0,1]",
				ErrInsufficientLandmarks, lm.Name, lm.Visibility)
		}
		if lm.Name == "" {
			return nil, fmt.Errorf("%w: unnamed landmark at index %d", ErrInsufficientLandmarks, i)
		}
		idx[lm.Name] = i
	}
	return &PoseFrame{
		Schema:     schema,
		Timestamp:  ts,
		Landmarks:  landmarks,
		Confidence: confidence,
		index:      idx,
	}, nil
}

// Landmark returns the named landmark, if present in this frame.
func (f *PoseFrame) Landmark(name string) (Landmark, bool) {
	if f.index != nil {
		if i, ok := f.index[name]; ok {
			return f.Landmarks[i], true
		}
		return Landmark{}, false
	}
	// Frames decoded straight from JSON have no index; fall back to scan.
	for _, lm := range f.Landmarks {
		if lm.Name == name {
			return lm, true
		}
	}
	return Landmark{}, false
}

// Vec returns the named landmark's position vector.
func (f *PoseFrame) Vec(name string) (r3.Vec, bool) {
	lm, ok := f.Landmark(name)
	if !ok {
		return r3.Vec{}, false
	}
	return lm.Vec(), true
}

// Visibility returns the named landmark's visibility, or 0 when absent.
func (f *PoseFrame) Visibility(name string) float64 {
	lm, ok := f.Landmark(name)
	if !ok {
		return 0
	}
	return lm.Visibility
}

// MinVisibility returns the lowest visibility among the named landmarks.
// Missing landmarks count as 0: a derived value may never claim higher
// confidence than its weakest required input.
func (f *PoseFrame) MinVisibility(names ...string) float64 {
	if len(names) == 0 {
		return 0
	}
	min := 1.0
	for _, n := range names {
		if v := f.Visibility(n); v < min {
			min = v
		}
	}
	return min
}

// Midpoint returns the midpoint of two named landmarks.
func (f *PoseFrame) Midpoint(a, b string) (r3.Vec, bool) {
	va, ok := f.Vec(a)
	if !ok {
		return r3.Vec{}, false
	}
	vb, ok := f.Vec(b)
	if !ok {
		return r3.Vec{}, false
	}
	return r3.Scale(0.5, r3.Add(va, vb)), true
}

// WithLandmarks returns a copy of the frame carrying replacement landmark
// positions (used by the smoothing filter). Timestamp, schema, and
// confidence carry over; the new slice must match the schema.
func (f *PoseFrame) WithLandmarks(landmarks []Landmark) (*PoseFrame, error) {
	return NewPoseFrame(f.Schema, f.Timestamp, landmarks, f.Confidence)
}
