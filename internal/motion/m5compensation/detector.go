package m5compensation

import (
	"fmt"

	"github.com/kinemetric/motion.report/internal/config"
	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m4measure"
)

// Detector evaluates the compensation rule set against each frame and
// grades raw deviations into severity tiers. Stateless across frames;
// temporal gating belongs to the PersistenceFilter.
type Detector struct {
	cfg        *config.TuningConfig
	rules      []rule
	view       ViewOrientation
	activeSide m1pose.Side
}

// NewDetector builds a detector for the given view orientation and
// exercising side. Configuration problems are fatal here rather than
// surfacing per-frame.
func NewDetector(cfg *config.TuningConfig, view ViewOrientation, activeSide m1pose.Side) (*Detector, error) {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", m1pose.ErrInvalidConfiguration, err)
	}
	if !view.Known() {
		return nil, fmt.Errorf("%w: unknown view orientation %q", m1pose.ErrInvalidConfiguration, view)
	}
	if activeSide != m1pose.SideLeft && activeSide != m1pose.SideRight {
		return nil, fmt.Errorf("%w: unknown active side %q", m1pose.ErrInvalidConfiguration, activeSide)
	}
	return &Detector{
		cfg:        cfg,
		rules:      defaultRules(),
		view:       view,
		activeSide: activeSide,
	}, nil
}

// Detect runs every rule against the frame. Rules that cannot apply
// (wrong view, missing depth, occluded landmarks) are silently skipped;
// every applicable rule yields exactly one graded event, minimal tier
// included, so downstream consumers see the full picture each frame.
func (d *Detector) Detect(frame *m1pose.PoseFrame, measurements map[string]m4measure.JointMeasurement) []CompensationEvent {
	ctx := evalContext{
		Frame:        frame,
		Measurements: measurements,
		View:         d.view,
		ActiveSide:   d.activeSide,
		MinVis:       d.cfg.GetVisibilityThreshold(),
	}
	var events []CompensationEvent
	for _, r := range d.rules {
		value, confidence, detail, ok := r.Evaluate(ctx)
		if !ok {
			continue
		}
		thresholds := d.cfg.GetRuleThresholds(string(r.Type()), r.Angular())
		events = append(events, CompensationEvent{
			Type:       r.Type(),
			Severity:   GradeSeverity(value, thresholds),
			Value:      value,
			Unit:       r.Unit(),
			Confidence: confidence,
			Detail:     detail,
			Timestamp:  frame.Timestamp,
		})
	}
	return events
}
