package m3frames

import (
	"container/list"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
)

// signatureQuantum is the spatial precision bucket for cache signatures:
// coordinates are rounded to 1/1000 of a normalized unit (a
// millimetre-equivalent bucket for a roughly metre-scale field of view)
// so near-identical poses hit the same cache entry.
const signatureQuantum = 1000

// Cache memoizes anatomical frame results keyed by a quantized landmark
// signature, with LRU + TTL eviction. It must be constructed fresh per
// pipeline instance: reusing one cache across unrelated pose sequences is
// a correctness bug, not a performance optimization. Not safe for
// concurrent use; the owning pipeline processes frames sequentially.
type Cache struct {
	maxSize int
	ttl     time.Duration

	ll    *list.List // front = most recently used
	items map[string]*list.Element

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry struct {
	key      string
	frame    AnatomicalFrame
	storedAt time.Time
}

// NewCache creates a frame cache bounded to maxSize entries. Entries
// older than ttl are treated as invalid lookups (a miss that recomputes).
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		items:   make(map[string]*list.Element, maxSize),
	}
}

// Signature computes the quantized landmark signature for a segment from
// the subset of landmark coordinates relevant to it.
func Signature(segment Segment, frame *m1pose.PoseFrame, relevant []string) string {
	var b strings.Builder
	b.Grow(16 + 24*len(relevant))
	b.WriteString(string(segment))
	for _, name := range relevant {
		lm, ok := frame.Landmark(name)
		b.WriteByte('|')
		if !ok {
			b.WriteByte('-')
			continue
		}
		writeQuantized(&b, lm.X)
		writeQuantized(&b, lm.Y)
		writeQuantized(&b, lm.Z)
	}
	return b.String()
}

func writeQuantized(b *strings.Builder, v float64) {
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(int64(math.Round(v*signatureQuantum)), 10))
}

// Get returns the cached frame for the segment's quantized signature, or
// invokes compute, stores the result, and evicts the least-recently-used
// entry if over capacity. now is the pipeline's frame timestamp, keeping
// TTL behavior deterministic under replay. Errors are never cached.
func (c *Cache) Get(segment Segment, frame *m1pose.PoseFrame, relevant []string, now time.Time, compute func() (AnatomicalFrame, error)) (AnatomicalFrame, error) {
	key := Signature(segment, frame, relevant)

	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry)
		if c.ttl <= 0 || now.Sub(entry.storedAt) <= c.ttl {
			c.hits++
			c.ll.MoveToFront(el)
			return entry.frame, nil
		}
		// Stale entry: drop it and fall through to recompute.
		c.ll.Remove(el)
		delete(c.items, key)
	}

	c.misses++
	result, err := compute()
	if err != nil {
		return AnatomicalFrame{}, err
	}

	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, frame: result, storedAt: now})
	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
		c.evictions++
	}
	return result, nil
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int { return c.ll.Len() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *Cache) Stats() (hits, misses, evictions uint64) {
	return c.hits, c.misses, c.evictions
}
