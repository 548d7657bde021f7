// Package m2filter implements the One-Euro adaptive low-pass filter used
// to remove tracking jitter from landmark and angle signals before any
// geometry is computed. The cutoff frequency adapts to the estimated
// signal velocity: slow movements are heavily smoothed while fast
// movements pass through with minimal lag.
package m2filter

import (
	"math"

	"github.com/kinemetric/motion.report/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// lowPass is a simple exponential low-pass stage.
type lowPass struct {
	initialized bool
	prev        float64
}

func (l *lowPass) filter(x, alpha float64) float64 {
	if !l.initialized {
		l.initialized = true
		l.prev = x
		return x
	}
	l.prev = alpha*x + (1-alpha)*l.prev
	return l.prev
}

func (l *lowPass) reset() {
	l.initialized = false
	l.prev = 0
}

// OneEuro filters a single scalar channel. Instantiate one per channel
// (one per x/y/z per landmark, or one per angle for the angle variant).
type OneEuro struct {
	minCutoff float64 // minimum cutoff frequency (Hz)
	beta      float64 // cutoff slope: responsiveness to velocity
	dCutoff   float64 // cutoff for the derivative estimate (Hz)

	x        lowPass
	dx       lowPass
	lastTime float64
	hasTime  bool
}

// NewOneEuro creates a scalar One-Euro filter. Typical tuning:
// minCutoff 1.0, beta 0.007, dCutoff 1.0.
func NewOneEuro(minCutoff, beta, dCutoff float64) *OneEuro {
	return &OneEuro{minCutoff: minCutoff, beta: beta, dCutoff: dCutoff}
}

// smoothingAlpha converts a cutoff frequency and a time step into the
// exponential smoothing factor.
func smoothingAlpha(cutoff, dt float64) float64 {
	tau := 1 / (2 * math.Pi * cutoff)
	return 1 / (1 + tau/dt)
}

// Filter smooths one sample. The first call for a fresh instance returns
// the input unchanged (no history to smooth against). A repeated
// timestamp (dt == 0) performs no derivative update and returns the
// previous filtered value rather than dividing by zero.
func (f *OneEuro) Filter(value, timestampSeconds float64) float64 {
	if !f.hasTime {
		f.hasTime = true
		f.lastTime = timestampSeconds
		f.dx.filter(0, 1)
		return f.x.filter(value, 1)
	}

	dt := timestampSeconds - f.lastTime
	if dt <= 0 {
		return f.x.prev
	}
	f.lastTime = timestampSeconds

	// Estimate and low-pass the derivative, then adapt the cutoff to it.
	rawDeriv := (value - f.x.prev) / dt
	deriv := f.dx.filter(rawDeriv, smoothingAlpha(f.dCutoff, dt))
	cutoff := f.minCutoff + f.beta*math.Abs(deriv)

	return f.x.filter(value, smoothingAlpha(cutoff, dt))
}

// Reset clears history, forcing the next call to behave as a first call.
func (f *OneEuro) Reset() {
	f.x.reset()
	f.dx.reset()
	f.hasTime = false
	f.lastTime = 0
}

// Vec3 filters a 3D position with an independent One-Euro filter per
// coordinate.
type Vec3 struct {
	x, y, z *OneEuro
}

// NewVec3 creates a vector filter with shared tuning across coordinates.
func NewVec3(minCutoff, beta, dCutoff float64) *Vec3 {
	return &Vec3{
		x: NewOneEuro(minCutoff, beta, dCutoff),
		y: NewOneEuro(minCutoff, beta, dCutoff),
		z: NewOneEuro(minCutoff, beta, dCutoff),
	}
}

// Filter smooths one vector sample.
func (f *Vec3) Filter(v r3.Vec, timestampSeconds float64) r3.Vec {
	return r3.Vec{
		X: f.x.Filter(v.X, timestampSeconds),
		Y: f.y.Filter(v.Y, timestampSeconds),
		Z: f.z.Filter(v.Z, timestampSeconds),
	}
}

// Reset clears history on all three coordinates.
func (f *Vec3) Reset() {
	f.x.Reset()
	f.y.Reset()
	f.z.Reset()
}

// Angle filters a circular signal in degrees. Raw inputs are unwrapped to
// the shortest angular path before filtering so 359°→1° is a +2° step,
// then the filtered result is renormalized into [0, 360).
type Angle struct {
	inner      *OneEuro
	continuous float64 // unwrapped input domain
	lastRaw    float64
	hasRaw     bool
}

// NewAngle creates an angle filter with the given One-Euro tuning.
func NewAngle(minCutoff, beta, dCutoff float64) *Angle {
	return &Angle{inner: NewOneEuro(minCutoff, beta, dCutoff)}
}

// Filter smooths one angle sample (degrees), returning a value in [0, 360).
func (f *Angle) Filter(deg, timestampSeconds float64) float64 {
	norm := units.NormalizeDeg(deg)
	if !f.hasRaw {
		f.hasRaw = true
		f.continuous = norm
		f.lastRaw = norm
		return units.NormalizeDeg(f.inner.Filter(norm, timestampSeconds))
	}
	f.continuous = units.UnwrapDeg(f.continuous, norm)
	f.lastRaw = norm
	return units.NormalizeDeg(f.inner.Filter(f.continuous, timestampSeconds))
}

// Reset clears history, forcing the next call to behave as a first call.
func (f *Angle) Reset() {
	f.inner.Reset()
	f.continuous = 0
	f.lastRaw = 0
	f.hasRaw = false
}
