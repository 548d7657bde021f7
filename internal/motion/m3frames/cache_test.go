package m3frames

import (
	"testing"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func cacheTestFrame(t *testing.T, ts time.Time, shoulderX float64) *m1pose.PoseFrame {
	t.Helper()
	return standingPose(t, m1pose.SchemaMoveNet17, ts, map[string]m1pose.Landmark{
		m1pose.LeftShoulder: {X: shoulderX, Y: 0.30, Visibility: 1},
	})
}

func TestCacheHitSkipsRecompute(t *testing.T) {
	cache := NewCache(8, time.Second)
	frame := cacheTestFrame(t, time.Unix(10, 0), 0.60)

	computeCalls := 0
	compute := func() (AnatomicalFrame, error) {
		computeCalls++
		return AnatomicalFrame{Segment: SegmentThorax, YAxis: r3.Vec{Y: -1}}, nil
	}

	first, err := cache.Get(SegmentThorax, frame, thoraxLandmarks, frame.Timestamp, compute)
	require.NoError(t, err)
	second, err := cache.Get(SegmentThorax, frame, thoraxLandmarks, frame.Timestamp, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, computeCalls, "identical signature must not recompute")
	assert.Equal(t, first, second)

	hits, misses, _ := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCacheQuantizationBucketsNearDuplicates(t *testing.T) {
	cache := NewCache(8, time.Second)
	computeCalls := 0
	compute := func() (AnatomicalFrame, error) {
		computeCalls++
		return AnatomicalFrame{Segment: SegmentThorax}, nil
	}

	base := cacheTestFrame(t, time.Unix(10, 0), 0.60)
	// 0.0001 of a normalized unit is inside the same quantization bucket.
	jittered := cacheTestFrame(t, time.Unix(10, 0).Add(33*time.Millisecond), 0.6001)
	// 0.002 crosses into a different bucket.
	moved := cacheTestFrame(t, time.Unix(10, 0).Add(66*time.Millisecond), 0.602)

	for _, f := range []*m1pose.PoseFrame{base, jittered, moved} {
		_, err := cache.Get(SegmentThorax, f, thoraxLandmarks, f.Timestamp, compute)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, computeCalls, "jittered pose should hit, moved pose should miss")
}

func TestCacheNeverExceedsMaxSize(t *testing.T) {
	cache := NewCache(3, time.Minute)
	for i := 0; i < 10; i++ {
		frame := cacheTestFrame(t, time.Unix(10, int64(i)), 0.3+float64(i)*0.01)
		_, err := cache.Get(SegmentThorax, frame, thoraxLandmarks, frame.Timestamp, func() (AnatomicalFrame, error) {
			return AnatomicalFrame{Segment: SegmentThorax}, nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, cache.Len(), 3, "cache size must never exceed maxSize")
	}
	_, misses, evictions := cache.Stats()
	assert.Equal(t, uint64(10), misses)
	assert.Equal(t, uint64(7), evictions)
}

func TestCacheLRUEvictionOrder(t *testing.T) {
	cache := NewCache(2, time.Minute)
	ts := time.Unix(10, 0)
	a := cacheTestFrame(t, ts, 0.60)
	bFrame := cacheTestFrame(t, ts, 0.65)
	c := cacheTestFrame(t, ts, 0.70)

	calls := map[float64]int{}
	get := func(f *m1pose.PoseFrame, x float64) {
		_, err := cache.Get(SegmentThorax, f, thoraxLandmarks, ts, func() (AnatomicalFrame, error) {
			calls[x]++
			return AnatomicalFrame{Segment: SegmentThorax}, nil
		})
		require.NoError(t, err)
	}

	get(a, 1)      // miss
	get(bFrame, 2) // miss
	get(a, 1)      // hit, refreshes a's recency
	get(c, 3)      // miss, evicts b (least recently used)
	get(a, 1)      // still cached
	get(bFrame, 2) // recomputed after eviction

	assert.Equal(t, 1, calls[1], "a computed once")
	assert.Equal(t, 2, calls[2], "b recomputed after LRU eviction")
	assert.Equal(t, 1, calls[3])
}

func TestCacheTTLExpiryIsAMiss(t *testing.T) {
	cache := NewCache(8, 100*time.Millisecond)
	ts := time.Unix(10, 0)
	frame := cacheTestFrame(t, ts, 0.60)

	computeCalls := 0
	compute := func() (AnatomicalFrame, error) {
		computeCalls++
		return AnatomicalFrame{Segment: SegmentThorax}, nil
	}

	_, err := cache.Get(SegmentThorax, frame, thoraxLandmarks, ts, compute)
	require.NoError(t, err)
	// Within TTL: hit.
	_, err = cache.Get(SegmentThorax, frame, thoraxLandmarks, ts.Add(50*time.Millisecond), compute)
	require.NoError(t, err)
	assert.Equal(t, 1, computeCalls)
	// Past TTL: stale entry is treated as a miss and recomputed.
	_, err = cache.Get(SegmentThorax, frame, thoraxLandmarks, ts.Add(200*time.Millisecond), compute)
	require.NoError(t, err)
	assert.Equal(t, 2, computeCalls)
}

func TestResolverServesOrthonormalFramesFromCache(t *testing.T) {
	resolver := NewResolver(NewBuilder(0.5), NewCache(16, time.Second))
	frame := standingPose(t, m1pose.SchemaBlazePose33, time.Unix(10, 0), nil)

	thorax, err := resolver.Thorax(frame)
	require.NoError(t, err)
	assertOrthonormal(t, thorax)

	humerus, err := resolver.Humerus(frame, m1pose.SideRight)
	require.NoError(t, err)
	assertOrthonormal(t, humerus)

	// Second resolution of the same frame comes from cache.
	again, err := resolver.Thorax(frame)
	require.NoError(t, err)
	assert.Equal(t, thorax, again)
	hits, _, _ := resolver.CacheStats()
	assert.GreaterOrEqual(t, hits, uint64(1))
}
