package m5compensation

import (
	"time"

	"github.com/kinemetric/motion.report/internal/config"
)

// Severity grades how pronounced a compensation is. Tiers order from
// least to most severe so they compare with <.
type Severity int

const (
	SeverityMinimal Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

var severityStrings = [...]string{"minimal", "mild", "moderate", "severe"}

func (s Severity) String() string {
	if s < SeverityMinimal || s > SeveritySevere {
		return "unknown"
	}
	return severityStrings[s]
}

// Unit labels the dimension of a rule's raw deviation value.
type Unit string

const (
	UnitDegrees     Unit = "deg"
	UnitCentimetres Unit = "cm"
)

// CompensationType identifies the movement strategy a rule watches for.
type CompensationType string

const (
	TrunkLean     CompensationType = "trunk_lean"
	TrunkRotation CompensationType = "trunk_rotation"
	ShoulderHike  CompensationType = "shoulder_hike"
	HipHike       CompensationType = "hip_hike"
	ElbowDrift    CompensationType = "elbow_drift"
)

// ViewOrientation describes how the subject faces the camera. Rules that
// read lateral asymmetry only make sense from the front; the detector
// skips them in sagittal views rather than reporting garbage.
type ViewOrientation string

const (
	ViewFrontal       ViewOrientation = "frontal"
	ViewSagittalLeft  ViewOrientation = "sagittal_left"
	ViewSagittalRight ViewOrientation = "sagittal_right"
)

// Known reports whether v is a recognized view orientation.
func (v ViewOrientation) Known() bool {
	switch v {
	case ViewFrontal, ViewSagittalLeft, ViewSagittalRight:
		return true
	}
	return false
}

// CompensationEvent is one graded rule firing for one frame. Events are
// raw detector output; consumers should normally take the persistence
// filter's confirmed stream instead.
type CompensationEvent struct {
	Type       CompensationType `json:"type"`
	Severity   Severity         `json:"severity"`
	Value      float64          `json:"value"`
	Unit       Unit             `json:"unit"`
	Confidence float64          `json:"confidence"`
	Detail     string           `json:"detail,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// GradeSeverity maps a raw deviation onto a severity tier. Each boundary
// is an exclusive lower bound for the tier above it: a value exactly at
// the severe threshold grades moderate.
func GradeSeverity(v float64, t config.SeverityThresholds) Severity {
	switch {
	case v <= t.Mild:
		return SeverityMinimal
	case v <= t.Moderate:
		return SeverityMild
	case v <= t.Severe:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}
