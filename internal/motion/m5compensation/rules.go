package m5compensation

import (
	"fmt"
	"math"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m4measure"
	"github.com/kinemetric/motion.report/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// evalContext carries everything a rule may read for one frame.
type evalContext struct {
	Frame        *m1pose.PoseFrame
	Measurements map[string]m4measure.JointMeasurement
	View         ViewOrientation
	ActiveSide   m1pose.Side
	MinVis       float64 // visibility threshold below which a rule abstains
}

// rule is one compensation pattern. Evaluate returns the raw deviation
// and whether the rule could be applied to this frame at all: rules
// abstain (applicable == false) rather than guess when the view, schema,
// or landmark visibility cannot support them.
type rule interface {
	Type() CompensationType
	Unit() Unit
	Angular() bool
	Evaluate(ctx evalContext) (value, confidence float64, detail string, applicable bool)
}

// defaultRules is the closed set of detection rules, evaluated in order.
func defaultRules() []rule {
	return []rule{
		trunkLeanRule{},
		trunkRotationRule{},
		shoulderHikeRule(),
		hipHikeRule(),
		elbowDriftRule{},
	}
}

// trunkReference returns the trunk landmarks' positions, weakest
// visibility, and the normalized torso length used for cm conversion.
func trunkReference(ctx evalContext) (midShoulder, midHip r3.Vec, minVis, torsoNorm float64, ok bool) {
	f := ctx.Frame
	minVis = f.MinVisibility(m1pose.LeftShoulder, m1pose.RightShoulder, m1pose.LeftHip, m1pose.RightHip)
	if minVis < ctx.MinVis {
		return r3.Vec{}, r3.Vec{}, 0, 0, false
	}
	midShoulder, _ = f.Midpoint(m1pose.LeftShoulder, m1pose.RightShoulder)
	midHip, _ = f.Midpoint(m1pose.LeftHip, m1pose.RightHip)
	torsoNorm = r3.Norm(r3.Sub(midShoulder, midHip))
	if torsoNorm < 1e-6 {
		return r3.Vec{}, r3.Vec{}, 0, 0, false
	}
	return midShoulder, midHip, minVis, torsoNorm, true
}

// trunkLeanRule measures lateral trunk lean: the angle between the
// mid-hip to mid-shoulder line and image vertical. Frontal view only.
type trunkLeanRule struct{}

func (trunkLeanRule) Type() CompensationType { return TrunkLean }
func (trunkLeanRule) Unit() Unit             { return UnitDegrees }
func (trunkLeanRule) Angular() bool          { return true }

func (trunkLeanRule) Evaluate(ctx evalContext) (float64, float64, string, bool) {
	if ctx.View != ViewFrontal {
		return 0, 0, "", false
	}
	midShoulder, midHip, minVis, _, ok := trunkReference(ctx)
	if !ok {
		return 0, 0, "", false
	}
	trunk := r3.Sub(midShoulder, midHip)
	// Image y grows downward, so an upright trunk has trunk.Y < 0.
	lean := math.Abs(units.RadToDeg(math.Atan2(trunk.X, -trunk.Y)))
	direction := "left"
	if trunk.X < 0 {
		direction = "right"
	}
	return lean, minVis, fmt.Sprintf("trunk leaning %s of vertical", direction), true
}

// trunkRotationRule measures axial trunk rotation from the depth skew of
// the shoulder line. Requires a topology with depth estimates; under a
// 2D schema the rule abstains rather than trusting zeroed z values.
type trunkRotationRule struct{}

func (trunkRotationRule) Type() CompensationType { return TrunkRotation }
func (trunkRotationRule) Unit() Unit             { return UnitDegrees }
func (trunkRotationRule) Angular() bool          { return true }

func (trunkRotationRule) Evaluate(ctx evalContext) (float64, float64, string, bool) {
	if ctx.View != ViewFrontal || !ctx.Frame.Schema.HasZ() {
		return 0, 0, "", false
	}
	f := ctx.Frame
	minVis := f.MinVisibility(m1pose.LeftShoulder, m1pose.RightShoulder)
	if minVis < ctx.MinVis {
		return 0, 0, "", false
	}
	ls, _ := f.Vec(m1pose.LeftShoulder)
	rs, _ := f.Vec(m1pose.RightShoulder)
	line := r3.Sub(rs, ls)
	planar := math.Hypot(line.X, line.Y)
	if planar < 1e-6 {
		return 0, 0, "", false
	}
	rotation := math.Abs(units.RadToDeg(math.Atan2(line.Z, planar)))
	forward := m1pose.SideRight
	if line.Z > 0 {
		forward = m1pose.SideLeft
	}
	return rotation, minVis, fmt.Sprintf("%s shoulder rotated toward camera", forward), true
}

// hikeRule measures vertical asymmetry of a left/right landmark pair in
// centimetres, torso-scaled. Shoulder and hip hiking share the mechanics.
type hikeRule struct {
	compType CompensationType
	baseName string
}

func (r hikeRule) Type() CompensationType { return r.compType }
func (hikeRule) Unit() Unit               { return UnitCentimetres }
func (hikeRule) Angular() bool            { return false }

func (r hikeRule) Evaluate(ctx evalContext) (float64, float64, string, bool) {
	if ctx.View != ViewFrontal {
		return 0, 0, "", false
	}
	_, _, _, torsoNorm, ok := trunkReference(ctx)
	if !ok {
		return 0, 0, "", false
	}
	f := ctx.Frame
	leftName := m1pose.LandmarkForSide(m1pose.SideLeft, r.baseName)
	rightName := m1pose.LandmarkForSide(m1pose.SideRight, r.baseName)
	minVis := f.MinVisibility(leftName, rightName)
	if minVis < ctx.MinVis {
		return 0, 0, "", false
	}
	left, _ := f.Vec(leftName)
	right, _ := f.Vec(rightName)
	// Lower image y is higher on the body.
	dy := left.Y - right.Y
	hike := math.Abs(units.NormalizedToCm(dy, torsoNorm))
	elevated := m1pose.SideRight
	if dy < 0 {
		elevated = m1pose.SideLeft
	}
	return hike, minVis, fmt.Sprintf("%s %s elevated", elevated, r.baseName), true
}

func shoulderHikeRule() rule { return hikeRule{compType: ShoulderHike, baseName: "shoulder"} }
func hipHikeRule() rule      { return hikeRule{compType: HipHike, baseName: "hip"} }

// elbowDriftRule measures drift of the exercising elbow away from the
// 90° position required during rotation protocols. View-independent: it
// reads the measurement engine's output rather than raw landmarks.
type elbowDriftRule struct{}

func (elbowDriftRule) Type() CompensationType { return ElbowDrift }
func (elbowDriftRule) Unit() Unit             { return UnitDegrees }
func (elbowDriftRule) Angular() bool          { return true }

func (elbowDriftRule) Evaluate(ctx evalContext) (float64, float64, string, bool) {
	key := string(ctx.ActiveSide) + "_" + m4measure.JointElbowFlexion
	m, ok := ctx.Measurements[key]
	if !ok || !m.Valid || m.Confidence < ctx.MinVis {
		return 0, 0, "", false
	}
	drift := math.Abs(m.AngleDeg - 90)
	return drift, m.Confidence, fmt.Sprintf("%s elbow at %.1f°, expected 90°", ctx.ActiveSide, m.AngleDeg), true
}
