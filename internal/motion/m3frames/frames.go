package m3frames

import (
	"fmt"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment identifies the body segment a coordinate frame is anchored to.
type Segment string

const (
	SegmentGlobal Segment = "global"
	SegmentThorax Segment = "thorax"
	SegmentPelvis Segment = "pelvis"
)

// SegmentHumerus returns the side-scoped humerus segment key.
func SegmentHumerus(side m1pose.Side) Segment {
	return Segment(string(side) + "_humerus")
}

// SegmentForearm returns the side-scoped forearm segment key.
func SegmentForearm(side m1pose.Side) Segment {
	return Segment(string(side) + "_forearm")
}

// AnatomicalFrame is a local orthonormal coordinate system anchored to a
// body segment. Axes are unit length and mutually orthogonal; the basis
// is right-handed (XAxis = YAxis × ZAxis).
type AnatomicalFrame struct {
	Segment    Segment
	Origin     r3.Vec
	XAxis      r3.Vec // subject forward
	YAxis      r3.Vec // up along the segment's anatomical line
	ZAxis      r3.Vec // subject right
	Confidence float64
}

// ToLocal expresses a world-space direction vector in the frame's basis.
func (f AnatomicalFrame) ToLocal(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r3.Dot(v, f.XAxis),
		Y: r3.Dot(v, f.YAxis),
		Z: r3.Dot(v, f.ZAxis),
	}
}

// minAxisNorm is the degeneracy floor for basis construction: a primary
// axis or cross product shorter than this indicates collinear inputs.
const minAxisNorm = 1e-6

// buildBasis constructs a right-handed orthonormal basis from a primary Y
// direction and an approximate Z reference. The Z reference is
// re-orthogonalized against Y (Gram-Schmidt) so the basis is numerically
// orthonormal even when the source points are only approximately
// co-planar. Returns ErrDegenerateGeometry when inputs are collinear.
func buildBasis(segment Segment, origin, primaryY, approxZ r3.Vec, confidence float64) (AnatomicalFrame, error) {
	ny := r3.Norm(primaryY)
	if ny < minAxisNorm {
		return AnatomicalFrame{}, fmt.Errorf("%w: %s primary axis near zero length",
			m1pose.ErrDegenerateGeometry, segment)
	}
	y := r3.Scale(1/ny, primaryY)

	zOrtho := r3.Sub(approxZ, r3.Scale(r3.Dot(approxZ, y), y))
	nz := r3.Norm(zOrtho)
	if nz < minAxisNorm {
		return AnatomicalFrame{}, fmt.Errorf("%w: %s reference axis collinear with primary",
			m1pose.ErrDegenerateGeometry, segment)
	}
	z := r3.Scale(1/nz, zOrtho)

	// Unit by construction: y ⊥ z and both unit length.
	x := r3.Cross(y, z)

	return AnatomicalFrame{
		Segment:    segment,
		Origin:     origin,
		XAxis:      x,
		YAxis:      y,
		ZAxis:      z,
		Confidence: confidence,
	}, nil
}
