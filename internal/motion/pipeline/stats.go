package pipeline

import (
	"sync"
	"time"
)

// Stats is a snapshot of per-session pipeline counters.
type Stats struct {
	SessionID        string        `json:"session_id"`
	FramesProcessed  uint64        `json:"frames_processed"`
	FramesRejected   uint64        `json:"frames_rejected"`
	EventsDetected   uint64        `json:"events_detected"`
	EventsConfirmed  uint64        `json:"events_confirmed"`
	CacheHits        uint64        `json:"cache_hits"`
	CacheMisses      uint64        `json:"cache_misses"`
	AvgFrameLatency  time.Duration `json:"avg_frame_latency"`
	LastFrameAt      time.Time     `json:"last_frame_at"`
	StartedAt        time.Time     `json:"started_at"`
}

// statsTracker accumulates counters behind a mutex. Snapshots are cheap
// and taken by the monitor webserver concurrently with frame processing.
type statsTracker struct {
	mu              sync.Mutex
	framesProcessed uint64
	framesRejected  uint64
	eventsDetected  uint64
	eventsConfirmed uint64
	cacheHits       uint64
	cacheMisses     uint64
	latencyEWMA     time.Duration
	lastFrameAt     time.Time
	startedAt       time.Time
}

// latencySmoothing is the EWMA weight given to each new frame's latency.
const latencySmoothing = 0.1

// recordFrame folds one frame's outcome into the counters. Cache counters
// arrive as cumulative values copied from the single-goroutine frame
// cache, making them safe to read from the monitor's goroutine here.
func (s *statsTracker) recordFrame(latency time.Duration, at time.Time, detected, confirmed int, cacheHits, cacheMisses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesProcessed++
	s.eventsDetected += uint64(detected)
	s.eventsConfirmed += uint64(confirmed)
	s.cacheHits = cacheHits
	s.cacheMisses = cacheMisses
	s.lastFrameAt = at
	if s.latencyEWMA == 0 {
		s.latencyEWMA = latency
	} else {
		s.latencyEWMA = time.Duration((1-latencySmoothing)*float64(s.latencyEWMA) + latencySmoothing*float64(latency))
	}
}

func (s *statsTracker) recordRejection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesRejected++
}

func (s *statsTracker) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		FramesProcessed: s.framesProcessed,
		FramesRejected:  s.framesRejected,
		EventsDetected:  s.eventsDetected,
		EventsConfirmed: s.eventsConfirmed,
		CacheHits:       s.cacheHits,
		CacheMisses:     s.cacheMisses,
		AvgFrameLatency: s.latencyEWMA,
		LastFrameAt:     s.lastFrameAt,
		StartedAt:       s.startedAt,
	}
}
