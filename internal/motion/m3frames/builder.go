package m3frames

import (
	"fmt"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"gonum.org/v1/gonum/spatial/r3"
)

// Required landmark sets per segment. Side-scoped segments append these
// to their parent's set so cache signatures cover every input that can
// change the resulting frame.
var (
	globalLandmarks = []string{m1pose.LeftHip, m1pose.RightHip}
	thoraxLandmarks = []string{
		m1pose.LeftShoulder, m1pose.RightShoulder,
		m1pose.LeftHip, m1pose.RightHip,
	}
	pelvisLandmarks = thoraxLandmarks
)

// humerusLandmarks returns the landmarks a humerus frame depends on,
// including the thorax landmarks it inherits its Z reference from.
func humerusLandmarks(side m1pose.Side) []string {
	own := []string{
		m1pose.LandmarkForSide(side, "shoulder"),
		m1pose.LandmarkForSide(side, "elbow"),
	}
	return append(own, thoraxLandmarks...)
}

// forearmLandmarks returns the landmarks a forearm frame depends on. The
// index finger provides the roll reference, so forearm frames are only
// constructible under topologies that track the hand.
func forearmLandmarks(side m1pose.Side) []string {
	return []string{
		m1pose.LandmarkForSide(side, "elbow"),
		m1pose.LandmarkForSide(side, "wrist"),
		m1pose.LandmarkForSide(side, "index"),
	}
}

// Builder constructs anatomical frames from pose frames. It holds no
// per-frame state; the visibility threshold is the global minimum
// landmark confidence below which a frame is not constructible.
type Builder struct {
	visibilityThreshold float64
}

// NewBuilder creates a frame builder with the given visibility floor.
func NewBuilder(visibilityThreshold float64) *Builder {
	return &Builder{visibilityThreshold: visibilityThreshold}
}

// checkLandmarks verifies the schema carries every required landmark and
// that all of them clear the visibility floor. Returns the weakest
// visibility among them, which caps the resulting frame's confidence.
func (b *Builder) checkLandmarks(frame *m1pose.PoseFrame, segment Segment, names []string) (float64, error) {
	for _, n := range names {
		if !frame.Schema.Has(n) {
			return 0, fmt.Errorf("%w: segment %s requires landmark %q not present in schema %s",
				m1pose.ErrSchemaUnsupported, segment, n, frame.Schema)
		}
	}
	minVis := frame.MinVisibility(names...)
	if minVis < b.visibilityThreshold {
		return minVis, fmt.Errorf("%w: segment %s has landmark visibility %.2f below %.2f",
			m1pose.ErrInsufficientLandmarks, segment, minVis, b.visibilityThreshold)
	}
	return minVis, nil
}

// GlobalFrame anchors the fixed image-space basis at the subject's
// mid-hip point. Image Y grows downward, so anatomical up is -Y; the
// subject is assumed to face the camera, putting forward along -Z and
// the subject's right along -X (a camera-facing subject's right side
// appears on the image's left).
func (b *Builder) GlobalFrame(frame *m1pose.PoseFrame) (AnatomicalFrame, error) {
	minVis, err := b.checkLandmarks(frame, SegmentGlobal, globalLandmarks)
	if err != nil {
		return AnatomicalFrame{}, err
	}
	origin, _ := frame.Midpoint(m1pose.LeftHip, m1pose.RightHip)
	return AnatomicalFrame{
		Segment:    SegmentGlobal,
		Origin:     origin,
		XAxis:      r3.Vec{X: 0, Y: 0, Z: -1},
		YAxis:      r3.Vec{X: 0, Y: -1, Z: 0},
		ZAxis:      r3.Vec{X: -1, Y: 0, Z: 0},
		Confidence: minVis,
	}, nil
}

// ThoraxFrame builds the trunk coordinate system: origin at the
// mid-shoulder point, Y up the trunk line (mid-hip to mid-shoulder), Z
// along the shoulder line towards the subject's right, X forward from
// their cross product.
func (b *Builder) ThoraxFrame(frame *m1pose.PoseFrame) (AnatomicalFrame, error) {
	minVis, err := b.checkLandmarks(frame, SegmentThorax, thoraxLandmarks)
	if err != nil {
		return AnatomicalFrame{}, err
	}
	midShoulder, _ := frame.Midpoint(m1pose.LeftShoulder, m1pose.RightShoulder)
	midHip, _ := frame.Midpoint(m1pose.LeftHip, m1pose.RightHip)
	ls, _ := frame.Vec(m1pose.LeftShoulder)
	rs, _ := frame.Vec(m1pose.RightShoulder)

	trunkUp := r3.Sub(midShoulder, midHip)
	shoulderLine := r3.Sub(rs, ls)
	return buildBasis(SegmentThorax, midShoulder, trunkUp, shoulderLine, minVis)
}

// PelvisFrame builds the pelvis coordinate system: origin at the mid-hip
// point, Y up the trunk line, Z along the hip line.
func (b *Builder) PelvisFrame(frame *m1pose.PoseFrame) (AnatomicalFrame, error) {
	minVis, err := b.checkLandmarks(frame, SegmentPelvis, pelvisLandmarks)
	if err != nil {
		return AnatomicalFrame{}, err
	}
	midShoulder, _ := frame.Midpoint(m1pose.LeftShoulder, m1pose.RightShoulder)
	midHip, _ := frame.Midpoint(m1pose.LeftHip, m1pose.RightHip)
	lh, _ := frame.Vec(m1pose.LeftHip)
	rh, _ := frame.Vec(m1pose.RightHip)

	trunkUp := r3.Sub(midShoulder, midHip)
	hipLine := r3.Sub(rh, lh)
	return buildBasis(SegmentPelvis, midHip, trunkUp, hipLine, minVis)
}

// HumerusFrame builds the upper-arm coordinate system for one side:
// origin at the shoulder, Y proximal along the humerus (elbow to
// shoulder), Z borrowed from the parent thorax frame. Its confidence is
// capped by the thorax frame's confidence.
func (b *Builder) HumerusFrame(frame *m1pose.PoseFrame, side m1pose.Side, thorax AnatomicalFrame) (AnatomicalFrame, error) {
	segment := SegmentHumerus(side)
	own := []string{
		m1pose.LandmarkForSide(side, "shoulder"),
		m1pose.LandmarkForSide(side, "elbow"),
	}
	minVis, err := b.checkLandmarks(frame, segment, own)
	if err != nil {
		return AnatomicalFrame{}, err
	}
	if thorax.Confidence < minVis {
		minVis = thorax.Confidence
	}
	shoulder, _ := frame.Vec(m1pose.LandmarkForSide(side, "shoulder"))
	elbow, _ := frame.Vec(m1pose.LandmarkForSide(side, "elbow"))

	humerusUp := r3.Sub(shoulder, elbow)
	return buildBasis(segment, shoulder, humerusUp, thorax.ZAxis, minVis)
}

// ForearmFrame builds the forearm coordinate system for one side: origin
// at the elbow, Y proximal along the forearm (wrist to elbow), roll
// reference from the hand (wrist to index finger). Requires a topology
// that tracks the hand; under movenet-17 this returns
// ErrSchemaUnsupported rather than fabricating a roll axis.
func (b *Builder) ForearmFrame(frame *m1pose.PoseFrame, side m1pose.Side) (AnatomicalFrame, error) {
	segment := SegmentForearm(side)
	minVis, err := b.checkLandmarks(frame, segment, forearmLandmarks(side))
	if err != nil {
		return AnatomicalFrame{}, err
	}
	elbow, _ := frame.Vec(m1pose.LandmarkForSide(side, "elbow"))
	wrist, _ := frame.Vec(m1pose.LandmarkForSide(side, "wrist"))
	index, _ := frame.Vec(m1pose.LandmarkForSide(side, "index"))

	forearmUp := r3.Sub(elbow, wrist)
	hand := r3.Sub(index, wrist)
	// The hand direction is nearly parallel to the forearm; its component
	// orthogonal to the forearm axis provides the roll reference.
	return buildBasis(segment, elbow, forearmUp, r3.Cross(hand, forearmUp), minVis)
}
