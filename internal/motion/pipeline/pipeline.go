package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kinemetric/motion.report/internal/config"
	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m2filter"
	"github.com/kinemetric/motion.report/internal/motion/m3frames"
	"github.com/kinemetric/motion.report/internal/motion/m4measure"
	"github.com/kinemetric/motion.report/internal/motion/m5compensation"
	"github.com/kinemetric/motion.report/internal/motion/m6temporal"
	"github.com/kinemetric/motion.report/internal/timeutil"
)

// RecorderSink persists per-frame analysis output. Implementations must
// tolerate being called once per frame; the pipeline treats recording
// failures as non-fatal and keeps processing.
type RecorderSink interface {
	RecordResult(res *Result) error
}

// Result is the complete derived output for one processed frame.
// Confirmed carries every compensation whose persistence requirement is
// met as of this frame, so a sustained deviation appears on each frame
// it holds, not only the frame it first crossed the threshold.
type Result struct {
	SessionID    string                                  `json:"session_id"`
	FrameIndex   uint64                                  `json:"frame_index"`
	Timestamp    time.Time                               `json:"timestamp"`
	Smoothed     *m1pose.PoseFrame                       `json:"-"`
	Measurements map[string]m4measure.JointMeasurement   `json:"measurements"`
	Detected     []m5compensation.CompensationEvent      `json:"detected,omitempty"`
	Confirmed    []m5compensation.CompensationEvent      `json:"confirmed,omitempty"`
	Temporal     map[string]m6temporal.Stats             `json:"temporal,omitempty"`
}

// PipelineConfig holds construction dependencies for a session pipeline.
type PipelineConfig struct {
	Tuning     *config.TuningConfig
	View       m5compensation.ViewOrientation
	ActiveSide m1pose.Side

	// Recorder, when non-nil, receives every frame's Result.
	Recorder RecorderSink

	// Clock drives latency measurement only; frame-time semantics
	// (debounce, cache TTL) always follow frame timestamps. Defaults to
	// the real clock.
	Clock timeutil.Clock
}

// Pipeline runs the full analysis chain for one capture session. Not
// safe for concurrent use: one session, one goroutine.
type Pipeline struct {
	sessionID  string
	tuning     *config.TuningConfig
	smoother   *m2filter.LandmarkSet
	resolver   *m3frames.Resolver
	engine     *m4measure.Engine
	detector   *m5compensation.Detector
	debounce   *m5compensation.PersistenceFilter
	temporal   *m6temporal.Analyzer
	recorder   RecorderSink
	clock      timeutil.Clock
	stats      statsTracker
	frameIndex uint64
	lastTS     time.Time
}

// New builds a session pipeline. Configuration problems are fatal here:
// a pipeline that constructs successfully can process frames without
// per-frame configuration errors.
func New(pc PipelineConfig) (*Pipeline, error) {
	tuning := pc.Tuning
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", m1pose.ErrInvalidConfiguration, err)
	}
	if pc.View == "" {
		pc.View = m5compensation.ViewFrontal
	}
	if pc.ActiveSide == "" {
		pc.ActiveSide = m1pose.SideRight
	}
	detector, err := m5compensation.NewDetector(tuning, pc.View, pc.ActiveSide)
	if err != nil {
		return nil, err
	}
	clock := pc.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	resolver := m3frames.NewResolver(
		m3frames.NewBuilder(tuning.GetVisibilityThreshold()),
		m3frames.NewCache(tuning.GetCacheMaxSize(), tuning.GetCacheTTL()),
	)
	p := &Pipeline{
		sessionID: uuid.NewString(),
		tuning:    tuning,
		smoother:  m2filter.NewLandmarkSet(tuning.GetMinCutoff(), tuning.GetBeta(), tuning.GetDCutoff()),
		resolver:  resolver,
		engine:    m4measure.NewEngine(resolver, tuning.GetVisibilityThreshold()),
		detector:  detector,
		debounce:  m5compensation.NewPersistenceFilter(tuning),
		temporal:  m6temporal.NewAnalyzer(tuning),
		recorder:  pc.Recorder,
		clock:     clock,
	}
	p.stats.startedAt = clock.Now()
	diagf("session %s started: view=%s side=%s cache=%d/%s window=%d",
		p.sessionID, pc.View, pc.ActiveSide,
		tuning.GetCacheMaxSize(), tuning.GetCacheTTL(), tuning.GetWindowSize())
	return p, nil
}

// SessionID returns the UUID assigned to this pipeline's session.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// ProcessFrame runs one pose frame through every stage and returns the
// frame's derived results. Frames must arrive in timestamp order; a
// frame at or before the previous frame's timestamp is rejected.
func (p *Pipeline) ProcessFrame(frame *m1pose.PoseFrame) (*Result, error) {
	if frame == nil {
		return nil, fmt.Errorf("%w: nil frame", m1pose.ErrInsufficientLandmarks)
	}
	if !p.lastTS.IsZero() && !frame.Timestamp.After(p.lastTS) {
		p.stats.recordRejection()
		return nil, fmt.Errorf("frame timestamp %s not after previous %s",
			frame.Timestamp.Format(time.RFC3339Nano), p.lastTS.Format(time.RFC3339Nano))
	}
	started := p.clock.Now()

	smoothed, err := p.smoother.Smooth(frame)
	if err != nil {
		p.stats.recordRejection()
		return nil, fmt.Errorf("smoothing: %w", err)
	}

	measurements := p.engine.MeasureAll(smoothed)
	detected := p.detector.Detect(smoothed, measurements)
	confirmed, newly := p.debounce.Observe(detected, frame.Timestamp)

	temporal := make(map[string]m6temporal.Stats, len(measurements))
	for key, m := range measurements {
		if !m.Valid {
			continue
		}
		stats := p.temporal.Push(m)
		temporal[key] = stats
		if stats.AnomalyDetected {
			diagf("session %s: %s jumped %.1f° in one frame", p.sessionID, key, stats.LastDeltaDeg)
		}
	}

	p.lastTS = frame.Timestamp
	p.frameIndex++
	res := &Result{
		SessionID:    p.sessionID,
		FrameIndex:   p.frameIndex,
		Timestamp:    frame.Timestamp,
		Smoothed:     smoothed,
		Measurements: measurements,
		Detected:     detected,
		Confirmed:    confirmed,
		Temporal:     temporal,
	}
	for _, ev := range newly {
		opsf("session %s: confirmed %s %s (%.1f%s)", p.sessionID, ev.Severity, ev.Type, ev.Value, ev.Unit)
	}

	if p.recorder != nil {
		if err := p.recorder.RecordResult(res); err != nil {
			opsf("session %s: recorder error on frame %d: %v", p.sessionID, p.frameIndex, err)
		}
	}

	hits, misses, _ := p.resolver.CacheStats()
	p.stats.recordFrame(p.clock.Since(started), frame.Timestamp, len(detected), len(newly), hits, misses)
	tracef("session %s frame %d: %d measurements, %d detected, %d confirmed",
		p.sessionID, p.frameIndex, len(measurements), len(detected), len(confirmed))
	return res, nil
}

// Reset clears all inter-frame state (filter history, debounce
// accumulation, temporal windows) while keeping the session identity.
// Used between exercise repetitions or after a tracking dropout.
func (p *Pipeline) Reset() {
	p.smoother.Reset()
	p.debounce.Reset()
	p.temporal.Reset()
	p.lastTS = time.Time{}
	diagf("session %s: state reset", p.sessionID)
}

// Stats returns a snapshot of the session's processing counters,
// including frame-cache effectiveness. Safe to call from other
// goroutines while the session processes frames.
func (p *Pipeline) Stats() Stats {
	s := p.stats.snapshot()
	s.SessionID = p.sessionID
	return s
}
