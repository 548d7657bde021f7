// Package units provides shared angle and length conversions for the
// motion pipeline. All circular (0°/360° wraparound) arithmetic lives
// here so that the smoothing filter and the temporal analyzer handle
// the boundary identically.
package units

import "math"

// NormalizeDeg maps an angle in degrees to the canonical range [0, 360).
func NormalizeDeg(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// SignedDeltaDeg returns the shortest signed angular distance from a to b
// in degrees, always in (-180, 180]. A positive result means b lies
// counter-clockwise of a on the circle.
func SignedDeltaDeg(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// CircularDistanceDeg returns the minimal (unsigned) circular distance
// between two angles in degrees, in [0, 180].
func CircularDistanceDeg(a, b float64) float64 {
	return math.Abs(SignedDeltaDeg(a, b))
}

// UnwrapDeg extends a continuous angle series by the shortest circular
// step from prev towards next. prev is a continuous (possibly out of
// [0,360)) angle; next is the new raw reading. The result stays within
// 180° of prev, so 359°→1° advances by +2° rather than jumping by -358°.
func UnwrapDeg(prev, next float64) float64 {
	return prev + SignedDeltaDeg(NormalizeDeg(prev), NormalizeDeg(next))
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }
