package m4measure

import (
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
)

// Plane labels the anatomical plane of motion a measurement is defined in.
type Plane string

const (
	PlaneSagittal   Plane = "sagittal"
	PlaneFrontal    Plane = "frontal"
	PlaneTransverse Plane = "transverse"
)

// Joint names for the measurements the engine produces.
const (
	JointElbowFlexion      = "elbow_flexion"
	JointKneeFlexion       = "knee_flexion"
	JointShoulderFlexion   = "shoulder_flexion"
	JointShoulderAbduction = "shoulder_abduction"
	JointShoulderRotation  = "shoulder_rotation"
	JointHipFlexion        = "hip_flexion"
)

// plausibleRange bounds each joint to its physiologically plausible
// range of motion (degrees). Values outside are clamped and flagged.
var plausibleRange = map[string][2]float64{
	JointElbowFlexion:      {0, 160},
	JointKneeFlexion:       {0, 150},
	JointShoulderFlexion:   {-60, 180},
	JointShoulderAbduction: {0, 180},
	JointShoulderRotation:  {-90, 90},
	JointHipFlexion:        {-30, 140},
}

// JointMeasurement is the output of one measurement call. Immutable once
// returned; consumed by the compensation detector and temporal analyzer.
type JointMeasurement struct {
	Joint      string      `json:"joint"`
	Side       m1pose.Side `json:"side"`
	AngleDeg   float64     `json:"angle_deg"`
	Valid      bool        `json:"valid"` // false means "not measurable this frame"
	Plane      Plane       `json:"plane"`
	Confidence float64     `json:"confidence"`
	Warnings   []string    `json:"warnings,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Key returns the side-qualified map key for this measurement,
// e.g. "left_elbow_flexion".
func (m JointMeasurement) Key() string {
	return string(m.Side) + "_" + m.Joint
}
