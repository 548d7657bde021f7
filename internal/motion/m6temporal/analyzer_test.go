package m6temporal

import (
	"testing"
	"time"

	"github.com/kinemetric/motion.report/internal/config"
	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m4measure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elbowSample(angle float64, ts time.Time) m4measure.JointMeasurement {
	return m4measure.JointMeasurement{
		Joint:      m4measure.JointElbowFlexion,
		Side:       m1pose.SideLeft,
		AngleDeg:   angle,
		Valid:      true,
		Confidence: 1,
		Timestamp:  ts,
	}
}

func TestSingleSampleHasNoStatistics(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())

	s := a.Push(elbowSample(45, time.Unix(100, 0)))
	assert.Equal(t, 1, s.SampleCount)
	assert.False(t, s.TrendValid, "one sample cannot define a trend")
	assert.False(t, s.JitterValid)
	assert.False(t, s.AnomalyDetected)
}

func TestSteadyRampTrend(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())
	t0 := time.Unix(100, 0)

	// 1° per frame at 30fps is exactly 30°/s, with zero jitter since every
	// delta is identical.
	var s Stats
	for i := 0; i < 30; i++ {
		ts := t0.Add(time.Duration(i) * time.Second / 30)
		s = a.Push(elbowSample(float64(i), ts))
	}
	require.True(t, s.TrendValid)
	assert.InDelta(t, 30.0, s.TrendDegPerSec, 0.5)
	require.True(t, s.JitterValid)
	assert.InDelta(t, 0.0, s.JitterDeg, 1e-9)
	assert.False(t, s.AnomalyDetected)
}

func TestNoisyHoldHasJitterButNoTrend(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())
	t0 := time.Unix(100, 0)

	// Oscillating ±2° around 90: jitter well above zero, trend near flat.
	angles := []float64{90, 92, 88, 91, 89, 90, 92, 88, 91, 89}
	var s Stats
	for i, angle := range angles {
		ts := t0.Add(time.Duration(i) * time.Second / 30)
		s = a.Push(elbowSample(angle, ts))
	}
	require.True(t, s.TrendValid)
	assert.InDelta(t, 0.0, s.TrendDegPerSec, 5.0)
	require.True(t, s.JitterValid)
	assert.Greater(t, s.JitterDeg, 1.0)
}

func TestJumpAnomalyDetection(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())
	t0 := time.Unix(100, 0)

	a.Push(elbowSample(45, t0))
	s := a.Push(elbowSample(46, t0.Add(33*time.Millisecond)))
	assert.False(t, s.AnomalyDetected)

	// A 40° jump in one frame exceeds the default 30° threshold.
	s = a.Push(elbowSample(86, t0.Add(66*time.Millisecond)))
	assert.True(t, s.AnomalyDetected)
	assert.InDelta(t, 40.0, s.LastDeltaDeg, 1e-9)

	// The window recovers on the next plausible sample.
	s = a.Push(elbowSample(87, t0.Add(99*time.Millisecond)))
	assert.False(t, s.AnomalyDetected)
}

func TestPerJointJumpThreshold(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	cfg.JumpThresholdsDeg = map[string]float64{m4measure.JointElbowFlexion: 10}
	require.NoError(t, cfg.Validate())
	a := NewAnalyzer(cfg)
	t0 := time.Unix(100, 0)

	a.Push(elbowSample(45, t0))
	s := a.Push(elbowSample(60, t0.Add(33*time.Millisecond)))
	assert.True(t, s.AnomalyDetected, "15° exceeds the 10° per-joint override")
}

func TestWraparoundIsNotAJump(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())
	t0 := time.Unix(100, 0)

	// Crossing the ±180° seam: the raw values leap from 179 to -179, but
	// the circular delta is only 2°.
	a.Push(elbowSample(177, t0))
	a.Push(elbowSample(179, t0.Add(33*time.Millisecond)))
	s := a.Push(elbowSample(-179, t0.Add(66*time.Millisecond)))
	assert.False(t, s.AnomalyDetected)
	assert.InDelta(t, 2.0, s.LastDeltaDeg, 1e-9)
	require.True(t, s.TrendValid)
	assert.Greater(t, s.TrendDegPerSec, 0.0, "unwrapped trajectory keeps rising through the seam")
}

func TestInvalidMeasurementDoesNotAdvanceWindow(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())
	t0 := time.Unix(100, 0)

	a.Push(elbowSample(45, t0))
	before := a.Stats("left_elbow_flexion")

	invalid := elbowSample(0, t0.Add(33*time.Millisecond))
	invalid.Valid = false
	after := a.Push(invalid)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, after.SampleCount)
}

func TestWindowEvictsOldestSamples(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	window := 5
	cfg.WindowSize = &window
	require.NoError(t, cfg.Validate())
	a := NewAnalyzer(cfg)
	t0 := time.Unix(100, 0)

	var s Stats
	for i := 0; i < 20; i++ {
		ts := t0.Add(time.Duration(i) * time.Second / 30)
		s = a.Push(elbowSample(float64(i), ts))
	}
	assert.Equal(t, 5, s.SampleCount, "window is capped at the configured size")
	require.True(t, s.TrendValid)
	assert.InDelta(t, 30.0, s.TrendDegPerSec, 0.5)
}

func TestJointsTrackIndependently(t *testing.T) {
	a := NewAnalyzer(config.EmptyTuningConfig())
	t0 := time.Unix(100, 0)

	knee := m4measure.JointMeasurement{
		Joint: m4measure.JointKneeFlexion, Side: m1pose.SideRight,
		AngleDeg: 10, Valid: true, Timestamp: t0,
	}
	a.Push(elbowSample(45, t0))
	a.Push(knee)

	elbowStats := a.Stats("left_elbow_flexion")
	kneeStats := a.Stats("right_knee_flexion")
	assert.Equal(t, 1, elbowStats.SampleCount)
	assert.Equal(t, 1, kneeStats.SampleCount)
	assert.Zero(t, a.Stats("left_hip_flexion").SampleCount)

	a.Reset()
	assert.Zero(t, a.Stats("left_elbow_flexion").SampleCount)
}
