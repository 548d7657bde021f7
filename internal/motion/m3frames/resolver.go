package m3frames

import (
	"github.com/kinemetric/motion.report/internal/motion/m1pose"
)

// Resolver pairs a Builder with a per-pipeline Cache so callers retrieve
// segment frames without caring whether they were recomputed or served
// from a prior near-identical pose.
type Resolver struct {
	builder *Builder
	cache   *Cache
}

// NewResolver creates a resolver over the given builder and cache.
func NewResolver(builder *Builder, cache *Cache) *Resolver {
	return &Resolver{builder: builder, cache: cache}
}

// Global resolves the fixed image-space frame anchored at the mid-hip.
func (r *Resolver) Global(frame *m1pose.PoseFrame) (AnatomicalFrame, error) {
	return r.cache.Get(SegmentGlobal, frame, globalLandmarks, frame.Timestamp, func() (AnatomicalFrame, error) {
		return r.builder.GlobalFrame(frame)
	})
}

// Thorax resolves the trunk frame.
func (r *Resolver) Thorax(frame *m1pose.PoseFrame) (AnatomicalFrame, error) {
	return r.cache.Get(SegmentThorax, frame, thoraxLandmarks, frame.Timestamp, func() (AnatomicalFrame, error) {
		return r.builder.ThoraxFrame(frame)
	})
}

// Pelvis resolves the pelvis frame.
func (r *Resolver) Pelvis(frame *m1pose.PoseFrame) (AnatomicalFrame, error) {
	return r.cache.Get(SegmentPelvis, frame, pelvisLandmarks, frame.Timestamp, func() (AnatomicalFrame, error) {
		return r.builder.PelvisFrame(frame)
	})
}

// Humerus resolves the side-scoped upper-arm frame, resolving its parent
// thorax frame first. The cache signature includes the thorax landmarks,
// so a trunk movement invalidates dependent humerus entries.
func (r *Resolver) Humerus(frame *m1pose.PoseFrame, side m1pose.Side) (AnatomicalFrame, error) {
	return r.cache.Get(SegmentHumerus(side), frame, humerusLandmarks(side), frame.Timestamp, func() (AnatomicalFrame, error) {
		thorax, err := r.builder.ThoraxFrame(frame)
		if err != nil {
			return AnatomicalFrame{}, err
		}
		return r.builder.HumerusFrame(frame, side, thorax)
	})
}

// Forearm resolves the side-scoped forearm frame.
func (r *Resolver) Forearm(frame *m1pose.PoseFrame, side m1pose.Side) (AnatomicalFrame, error) {
	return r.cache.Get(SegmentForearm(side), frame, forearmLandmarks(side), frame.Timestamp, func() (AnatomicalFrame, error) {
		return r.builder.ForearmFrame(frame, side)
	})
}

// CacheStats exposes the underlying cache counters for pipeline stats.
func (r *Resolver) CacheStats() (hits, misses, evictions uint64) {
	return r.cache.Stats()
}
