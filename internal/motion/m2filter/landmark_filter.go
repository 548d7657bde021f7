package m2filter

import (
	"github.com/kinemetric/motion.report/internal/motion/m1pose"
)

// LandmarkSet smooths every landmark of a pose frame, one Vec3 filter per
// landmark name. Filters are created lazily on first sight of a landmark
// so the same instance serves any schema; visibility values pass through
// untouched (smoothing position must not inflate confidence).
type LandmarkSet struct {
	minCutoff, beta, dCutoff float64
	filters                  map[string]*Vec3
}

// NewLandmarkSet creates a per-landmark smoothing bank.
func NewLandmarkSet(minCutoff, beta, dCutoff float64) *LandmarkSet {
	return &LandmarkSet{
		minCutoff: minCutoff,
		beta:      beta,
		dCutoff:   dCutoff,
		filters:   make(map[string]*Vec3),
	}
}

// Smooth returns a new frame whose landmark positions have been filtered.
// The input frame is never mutated.
func (s *LandmarkSet) Smooth(frame *m1pose.PoseFrame) (*m1pose.PoseFrame, error) {
	ts := float64(frame.Timestamp.UnixNano()) / 1e9
	smoothed := make([]m1pose.Landmark, len(frame.Landmarks))
	for i, lm := range frame.Landmarks {
		f, ok := s.filters[lm.Name]
		if !ok {
			f = NewVec3(s.minCutoff, s.beta, s.dCutoff)
			s.filters[lm.Name] = f
		}
		v := f.Filter(lm.Vec(), ts)
		smoothed[i] = m1pose.Landmark{
			Name:       lm.Name,
			X:          v.X,
			Y:          v.Y,
			Z:          v.Z,
			Visibility: lm.Visibility,
		}
	}
	return frame.WithLandmarks(smoothed)
}

// Reset clears history on every landmark channel, forcing the next frame
// to pass through unsmoothed. Used between sessions or after a tracking
// dropout long enough that continuity is meaningless.
func (s *LandmarkSet) Reset() {
	for _, f := range s.filters {
		f.Reset()
	}
}
