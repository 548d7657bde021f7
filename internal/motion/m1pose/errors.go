package m1pose

import "errors"

// Error taxonomy for the whole pipeline. All "could not compute" states
// are explicit: no error may ever propagate as a NaN or silently-zero
// numeric value.
var (
	// ErrInsufficientLandmarks indicates required points are missing from
	// the frame or below the visibility floor. Recovered locally by
	// returning a quality-degraded or unavailable result; never fatal.
	ErrInsufficientLandmarks = errors.New("insufficient landmarks")

	// ErrDegenerateGeometry indicates collinear or zero-length basis
	// vectors. Recovered by returning "frame unavailable".
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrSchemaUnsupported indicates the requested segment or measurement
	// is not constructible under the active landmark topology. Recovered
	// by omitting the dependent measurements.
	ErrSchemaUnsupported = errors.New("schema unsupported")

	// ErrInvalidConfiguration indicates bad tuning values (e.g.
	// non-monotonic severity thresholds). Fatal at pipeline construction
	// time, surfaced immediately rather than deferred.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
