package m6temporal

import (
	"time"

	"github.com/kinemetric/motion.report/internal/config"
	"github.com/kinemetric/motion.report/internal/motion/m4measure"
	"github.com/kinemetric/motion.report/internal/units"
	"gonum.org/v1/gonum/stat"
)

// Stats is the per-joint temporal summary after one pushed sample.
// Validity flags are explicit: a window too short for a statistic
// reports it invalid rather than zero, so callers never mistake "not
// enough data" for "perfectly steady".
type Stats struct {
	SampleCount     int     `json:"sample_count"`
	TrendDegPerSec  float64 `json:"trend_deg_per_sec"`
	TrendValid      bool    `json:"trend_valid"`
	JitterDeg       float64 `json:"jitter_deg"`
	JitterValid     bool    `json:"jitter_valid"`
	LastDeltaDeg    float64 `json:"last_delta_deg"`
	AnomalyDetected bool    `json:"anomaly_detected"`
}

// sample is one angle observation on the unwrapped continuous domain.
type sample struct {
	at         time.Time
	continuous float64
}

// jointWindow is a fixed-capacity ring of the most recent samples for
// one side-qualified joint.
type jointWindow struct {
	samples []sample
	head    int // index of the oldest sample
	count   int
}

func (w *jointWindow) push(s sample) {
	if w.count < len(w.samples) {
		w.samples[(w.head+w.count)%len(w.samples)] = s
		w.count++
		return
	}
	w.samples[w.head] = s
	w.head = (w.head + 1) % len(w.samples)
}

func (w *jointWindow) at(i int) sample {
	return w.samples[(w.head+i)%len(w.samples)]
}

func (w *jointWindow) latest() sample {
	return w.at(w.count - 1)
}

// Analyzer tracks temporal statistics per joint. Not safe for concurrent
// use; each pipeline owns one.
type Analyzer struct {
	cfg        *config.TuningConfig
	windowSize int
	joints     map[string]*jointWindow
}

// NewAnalyzer builds an analyzer with the window size and per-joint jump
// thresholds from cfg.
func NewAnalyzer(cfg *config.TuningConfig) *Analyzer {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Analyzer{
		cfg:        cfg,
		windowSize: cfg.GetWindowSize(),
		joints:     make(map[string]*jointWindow),
	}
}

// Push feeds one valid measurement into the joint's window and returns
// the refreshed statistics. Invalid measurements are not pushed: the
// window simply does not advance, and the previous statistics stand.
func (a *Analyzer) Push(m m4measure.JointMeasurement) Stats {
	key := m.Key()
	if !m.Valid {
		return a.Stats(key)
	}
	w, ok := a.joints[key]
	if !ok {
		w = &jointWindow{samples: make([]sample, a.windowSize)}
		a.joints[key] = w
	}

	continuous := m.AngleDeg
	var lastDelta float64
	if w.count > 0 {
		prev := w.latest()
		continuous = units.UnwrapDeg(prev.continuous, m.AngleDeg)
		lastDelta = continuous - prev.continuous
	}
	w.push(sample{at: m.Timestamp, continuous: continuous})

	stats := a.compute(w)
	stats.LastDeltaDeg = lastDelta
	if w.count >= 2 {
		threshold := a.cfg.GetJumpThresholdDeg(m.Joint)
		stats.AnomalyDetected = lastDelta > threshold || lastDelta < -threshold
	}
	return stats
}

// Stats returns the current statistics for a side-qualified joint key
// without advancing the window.
func (a *Analyzer) Stats(key string) Stats {
	w, ok := a.joints[key]
	if !ok {
		return Stats{}
	}
	s := a.compute(w)
	if w.count >= 2 {
		s.LastDeltaDeg = w.latest().continuous - w.at(w.count-2).continuous
	}
	return s
}

// Reset drops all accumulated windows, e.g. between exercise repetitions.
func (a *Analyzer) Reset() {
	a.joints = make(map[string]*jointWindow)
}

func (a *Analyzer) compute(w *jointWindow) Stats {
	s := Stats{SampleCount: w.count}
	if w.count < 2 {
		return s
	}

	// Trend: least-squares slope of angle against elapsed seconds. A
	// window with no time spread (duplicate timestamps) has no defined
	// slope.
	t0 := w.at(0).at
	xs := make([]float64, w.count)
	ys := make([]float64, w.count)
	spread := false
	for i := 0; i < w.count; i++ {
		smp := w.at(i)
		xs[i] = smp.at.Sub(t0).Seconds()
		ys[i] = smp.continuous
		if xs[i] != xs[0] {
			spread = true
		}
	}
	if spread {
		_, slope := stat.LinearRegression(xs, ys, nil, false)
		s.TrendDegPerSec = slope
		s.TrendValid = true
	}

	// Jitter: standard deviation of successive deltas, needing at least
	// two deltas to be meaningful.
	if w.count >= 3 {
		deltas := make([]float64, 0, w.count-1)
		for i := 1; i < w.count; i++ {
			deltas = append(deltas, w.at(i).continuous-w.at(i-1).continuous)
		}
		s.JitterDeg = stat.StdDev(deltas, nil)
		s.JitterValid = true
	}
	return s
}
