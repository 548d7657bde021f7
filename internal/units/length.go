package units

// DefaultTorsoLengthCm is the assumed anatomical torso length (mid-hip to
// mid-shoulder) used to convert normalized image distances to centimetres
// when no per-subject calibration is available. 50 cm is a reasonable
// adult average; compensation thresholds expressed in centimetres are
// tolerant of the ±15% error this introduces.
const DefaultTorsoLengthCm = 50.0

// NormalizedToCm converts a distance measured in normalized image units
// into centimetres, scaling by the subject's torso length observed in the
// same normalized units. Returns 0 when the torso reference is degenerate
// (zero or negative), since no scale can be established.
func NormalizedToCm(d, torsoNorm float64) float64 {
	if torsoNorm <= 1e-9 {
		return 0
	}
	return d / torsoNorm * DefaultTorsoLengthCm
}
