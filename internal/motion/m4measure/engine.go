package m4measure

import (
	"errors"
	"fmt"
	"math"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m3frames"
	"github.com/kinemetric/motion.report/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// minSegmentNorm is the degeneracy floor for limb-segment vectors.
const minSegmentNorm = 1e-6

// Engine computes joint measurements against a per-pipeline frame
// resolver. Measurement calls are idempotent: the same pose frame always
// yields the same result.
type Engine struct {
	frames              *m3frames.Resolver
	visibilityThreshold float64
}

// NewEngine creates a measurement engine over the given frame resolver.
func NewEngine(frames *m3frames.Resolver, visibilityThreshold float64) *Engine {
	return &Engine{frames: frames, visibilityThreshold: visibilityThreshold}
}

// visibilityGate returns the weakest visibility among the named landmarks
// and a warning per landmark below the threshold. The weakest visibility
// caps the measurement's confidence regardless of warnings.
func (e *Engine) visibilityGate(frame *m1pose.PoseFrame, names ...string) (float64, []string) {
	minVis := 1.0
	var warnings []string
	for _, n := range names {
		v := frame.Visibility(n)
		if v < minVis {
			minVis = v
		}
		if v < e.visibilityThreshold {
			warnings = append(warnings,
				fmt.Sprintf("landmark %s visibility %.2f below threshold %.2f", n, v, e.visibilityThreshold))
		}
	}
	return minVis, warnings
}

// clampPlausible clamps angle into the joint's physiological range,
// appending a warning when clipping occurred.
func clampPlausible(joint string, angle float64, warnings []string) (float64, []string) {
	r, ok := plausibleRange[joint]
	if !ok {
		return angle, warnings
	}
	if angle < r[0] {
		return r[0], append(warnings, fmt.Sprintf("%s %.1f° below plausible range, clamped to %.1f°", joint, angle, r[0]))
	}
	if angle > r[1] {
		return r[1], append(warnings, fmt.Sprintf("%s %.1f° above plausible range, clamped to %.1f°", joint, angle, r[1]))
	}
	return angle, warnings
}

// unavailable builds the explicit "not measurable this frame" result.
func unavailable(joint string, side m1pose.Side, plane Plane, frame *m1pose.PoseFrame, confidence float64, warnings []string) JointMeasurement {
	return JointMeasurement{
		Joint:      joint,
		Side:       side,
		Valid:      false,
		Plane:      plane,
		Confidence: confidence,
		Warnings:   warnings,
		Timestamp:  frame.Timestamp,
	}
}

// interiorAngleDeg returns the unsigned angle between two segment vectors
// meeting at a joint, computed via atan2 for numerical robustness near 0°
// and 180°.
func interiorAngleDeg(u, w r3.Vec) (float64, error) {
	if r3.Norm(u) < minSegmentNorm || r3.Norm(w) < minSegmentNorm {
		return 0, fmt.Errorf("%w: zero-length limb segment", m1pose.ErrDegenerateGeometry)
	}
	return units.RadToDeg(math.Atan2(r3.Norm(r3.Cross(u, w)), r3.Dot(u, w))), nil
}

// lateralSign maps side to the sign of the subject-right Z axis: motion
// away from the midline is +Z on the right side and -Z on the left.
func lateralSign(side m1pose.Side) float64 {
	if side == m1pose.SideRight {
		return 1
	}
	return -1
}

// ElbowFlexion measures the elbow's interior flexion angle in the
// sagittal plane: 0° is a fully extended arm, 90° a right-angle bend.
func (e *Engine) ElbowFlexion(frame *m1pose.PoseFrame, side m1pose.Side) (JointMeasurement, error) {
	shoulderName := m1pose.LandmarkForSide(side, "shoulder")
	elbowName := m1pose.LandmarkForSide(side, "elbow")
	wristName := m1pose.LandmarkForSide(side, "wrist")
	return e.threePointFlexion(frame, side, JointElbowFlexion, shoulderName, elbowName, wristName)
}

// KneeFlexion measures the knee's interior flexion angle in the sagittal
// plane: 0° is a straight leg.
func (e *Engine) KneeFlexion(frame *m1pose.PoseFrame, side m1pose.Side) (JointMeasurement, error) {
	hipName := m1pose.LandmarkForSide(side, "hip")
	kneeName := m1pose.LandmarkForSide(side, "knee")
	ankleName := m1pose.LandmarkForSide(side, "ankle")
	return e.threePointFlexion(frame, side, JointKneeFlexion, hipName, kneeName, ankleName)
}

// threePointFlexion measures flexion at the middle of a proximal-apex-
// distal landmark triple: 180° minus the interior angle, so a straight
// segment reads 0°.
func (e *Engine) threePointFlexion(frame *m1pose.PoseFrame, side m1pose.Side, joint, proximal, apex, distal string) (JointMeasurement, error) {
	for _, n := range []string{proximal, apex, distal} {
		if !frame.Schema.Has(n) {
			return unavailable(joint, side, PlaneSagittal, frame, 0, nil),
				fmt.Errorf("%w: %s requires landmark %q not present in schema %s",
					m1pose.ErrSchemaUnsupported, joint, n, frame.Schema)
		}
	}
	conf, warnings := e.visibilityGate(frame, proximal, apex, distal)

	p, _ := frame.Vec(proximal)
	a, _ := frame.Vec(apex)
	d, _ := frame.Vec(distal)
	interior, err := interiorAngleDeg(r3.Sub(p, a), r3.Sub(d, a))
	if err != nil {
		return unavailable(joint, side, PlaneSagittal, frame, conf, append(warnings, "collinear or coincident landmarks")), err
	}

	angle, warnings := clampPlausible(joint, 180-interior, warnings)
	return JointMeasurement{
		Joint:      joint,
		Side:       side,
		AngleDeg:   angle,
		Valid:      true,
		Plane:      PlaneSagittal,
		Confidence: conf,
		Warnings:   warnings,
		Timestamp:  frame.Timestamp,
	}, nil
}

// ShoulderFlexion measures humeral elevation in the thorax's sagittal
// plane: 0° arm hanging, +90° arm horizontal forward, 180° overhead;
// negative values are extension behind the trunk.
func (e *Engine) ShoulderFlexion(frame *m1pose.PoseFrame, side m1pose.Side) (JointMeasurement, error) {
	return e.humeralElevation(frame, side, JointShoulderFlexion, PlaneSagittal)
}

// ShoulderAbduction measures humeral elevation in the thorax's frontal
// plane: 0° arm hanging, +90° arm horizontal out to the side.
func (e *Engine) ShoulderAbduction(frame *m1pose.PoseFrame, side m1pose.Side) (JointMeasurement, error) {
	return e.humeralElevation(frame, side, JointShoulderAbduction, PlaneFrontal)
}

func (e *Engine) humeralElevation(frame *m1pose.PoseFrame, side m1pose.Side, joint string, plane Plane) (JointMeasurement, error) {
	shoulderName := m1pose.LandmarkForSide(side, "shoulder")
	elbowName := m1pose.LandmarkForSide(side, "elbow")
	conf, warnings := e.visibilityGate(frame, shoulderName, elbowName)

	thorax, err := e.frames.Thorax(frame)
	if err != nil {
		if errors.Is(err, m1pose.ErrSchemaUnsupported) {
			return unavailable(joint, side, plane, frame, 0, nil), err
		}
		return unavailable(joint, side, plane, frame, conf,
			append(warnings, "thorax frame unavailable: "+err.Error())), err
	}
	if thorax.Confidence < conf {
		conf = thorax.Confidence
	}

	shoulder, _ := frame.Vec(shoulderName)
	elbow, _ := frame.Vec(elbowName)
	humerus := r3.Sub(elbow, shoulder) // distal direction
	if r3.Norm(humerus) < minSegmentNorm {
		err := fmt.Errorf("%w: %s humerus segment near zero length", m1pose.ErrDegenerateGeometry, side)
		return unavailable(joint, side, plane, frame, conf, append(warnings, "degenerate humerus segment")), err
	}
	local := thorax.ToLocal(humerus)

	var raw float64
	switch plane {
	case PlaneSagittal:
		// Forward component against the downward hanging direction.
		raw = units.RadToDeg(math.Atan2(local.X, -local.Y))
	case PlaneFrontal:
		// Lateral (away from midline) component against hanging direction.
		raw = units.RadToDeg(math.Atan2(lateralSign(side)*local.Z, -local.Y))
	}

	angle, warnings := clampPlausible(joint, raw, warnings)
	return JointMeasurement{
		Joint:      joint,
		Side:       side,
		AngleDeg:   angle,
		Valid:      true,
		Plane:      plane,
		Confidence: conf,
		Warnings:   warnings,
		Timestamp:  frame.Timestamp,
	}, nil
}

// ShoulderRotation measures internal/external humeral rotation in the
// transverse plane, read from the forearm's direction expressed in the
// humerus frame: 0° forearm pointing forward, positive external (away
// from the midline), negative internal. Requires the forearm frame, so
// topologies without hand landmarks report it as unavailable.
func (e *Engine) ShoulderRotation(frame *m1pose.PoseFrame, side m1pose.Side) (JointMeasurement, error) {
	elbowName := m1pose.LandmarkForSide(side, "elbow")
	wristName := m1pose.LandmarkForSide(side, "wrist")
	conf, warnings := e.visibilityGate(frame, elbowName, wristName)

	humerus, err := e.frames.Humerus(frame, side)
	if err != nil {
		if errors.Is(err, m1pose.ErrSchemaUnsupported) {
			return unavailable(JointShoulderRotation, side, PlaneTransverse, frame, 0, nil), err
		}
		return unavailable(JointShoulderRotation, side, PlaneTransverse, frame, conf,
			append(warnings, "humerus frame unavailable: "+err.Error())), err
	}
	forearm, err := e.frames.Forearm(frame, side)
	if err != nil {
		if errors.Is(err, m1pose.ErrSchemaUnsupported) {
			return unavailable(JointShoulderRotation, side, PlaneTransverse, frame, 0, nil), err
		}
		return unavailable(JointShoulderRotation, side, PlaneTransverse, frame, conf,
			append(warnings, "forearm frame unavailable: "+err.Error())), err
	}
	if humerus.Confidence < conf {
		conf = humerus.Confidence
	}
	if forearm.Confidence < conf {
		conf = forearm.Confidence
	}

	// Distal forearm direction in the humerus basis.
	local := humerus.ToLocal(r3.Scale(-1, forearm.YAxis))
	raw := units.RadToDeg(math.Atan2(lateralSign(side)*local.Z, local.X))

	angle, warnings := clampPlausible(JointShoulderRotation, raw, warnings)
	return JointMeasurement{
		Joint:      JointShoulderRotation,
		Side:       side,
		AngleDeg:   angle,
		Valid:      true,
		Plane:      PlaneTransverse,
		Confidence: conf,
		Warnings:   warnings,
		Timestamp:  frame.Timestamp,
	}, nil
}

// HipFlexion measures femoral elevation in the pelvis's sagittal plane:
// 0° standing, +90° thigh horizontal forward.
func (e *Engine) HipFlexion(frame *m1pose.PoseFrame, side m1pose.Side) (JointMeasurement, error) {
	hipName := m1pose.LandmarkForSide(side, "hip")
	kneeName := m1pose.LandmarkForSide(side, "knee")
	conf, warnings := e.visibilityGate(frame, hipName, kneeName)

	pelvis, err := e.frames.Pelvis(frame)
	if err != nil {
		if errors.Is(err, m1pose.ErrSchemaUnsupported) {
			return unavailable(JointHipFlexion, side, PlaneSagittal, frame, 0, nil), err
		}
		return unavailable(JointHipFlexion, side, PlaneSagittal, frame, conf,
			append(warnings, "pelvis frame unavailable: "+err.Error())), err
	}
	if pelvis.Confidence < conf {
		conf = pelvis.Confidence
	}

	hip, _ := frame.Vec(hipName)
	knee, _ := frame.Vec(kneeName)
	femur := r3.Sub(knee, hip)
	if r3.Norm(femur) < minSegmentNorm {
		err := fmt.Errorf("%w: %s femur segment near zero length", m1pose.ErrDegenerateGeometry, side)
		return unavailable(JointHipFlexion, side, PlaneSagittal, frame, conf, append(warnings, "degenerate femur segment")), err
	}
	local := pelvis.ToLocal(femur)
	raw := units.RadToDeg(math.Atan2(local.X, -local.Y))

	angle, warnings := clampPlausible(JointHipFlexion, raw, warnings)
	return JointMeasurement{
		Joint:      JointHipFlexion,
		Side:       side,
		AngleDeg:   angle,
		Valid:      true,
		Plane:      PlaneSagittal,
		Confidence: conf,
		Warnings:   warnings,
		Timestamp:  frame.Timestamp,
	}, nil
}

// measureFunc adapts one engine method for MeasureAll iteration.
type measureFunc func(*m1pose.PoseFrame, m1pose.Side) (JointMeasurement, error)

// MeasureAll runs every measurement for both sides. Measurements whose
// landmarks are absent from the active topology are omitted entirely
// (SchemaUnsupported); measurements that are supported but not computable
// this frame are included with Valid == false so callers can distinguish
// the two.
func (e *Engine) MeasureAll(frame *m1pose.PoseFrame) map[string]JointMeasurement {
	fns := []measureFunc{
		e.ElbowFlexion,
		e.KneeFlexion,
		e.ShoulderFlexion,
		e.ShoulderAbduction,
		e.ShoulderRotation,
		e.HipFlexion,
	}
	out := make(map[string]JointMeasurement, 2*len(fns))
	for _, side := range []m1pose.Side{m1pose.SideLeft, m1pose.SideRight} {
		for _, fn := range fns {
			m, err := fn(frame, side)
			if err != nil && errors.Is(err, m1pose.ErrSchemaUnsupported) {
				continue
			}
			out[m.Key()] = m
		}
	}
	return out
}
