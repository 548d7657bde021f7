package m5compensation

import (
	"time"

	"github.com/kinemetric/motion.report/internal/config"
)

// debounceState is the per-key lifecycle of a candidate compensation.
type debounceState int

const (
	stateIdle debounceState = iota
	stateAccumulating
	stateConfirmed
)

// debounceKey scopes persistence tracking: the same compensation at a
// different severity accumulates independently, so a worsening pattern
// must re-earn confirmation at its new tier.
type debounceKey struct {
	Type     CompensationType
	Severity Severity
}

type debounceEntry struct {
	state     debounceState
	firstSeen time.Time
	lastSeen  time.Time
}

// PersistenceFilter suppresses transient rule firings: a compensation is
// confirmed only after it has been observed continuously for the
// severity tier's required persistence, and the confirmation is retired
// once observations stop for longer than the reset timeout. All timing
// derives from frame timestamps, so replayed sessions debounce
// identically to live ones.
type PersistenceFilter struct {
	cfg          *config.TuningConfig
	resetTimeout time.Duration
	entries      map[debounceKey]*debounceEntry
}

// NewPersistenceFilter builds a filter using the tier persistence
// durations and reset timeout from cfg.
func NewPersistenceFilter(cfg *config.TuningConfig) *PersistenceFilter {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &PersistenceFilter{
		cfg:          cfg,
		resetTimeout: cfg.GetResetTimeout(),
		entries:      make(map[debounceKey]*debounceEntry),
	}
}

// Observe feeds one frame's detector output through the state machine.
// active holds every event whose compensation is confirmed as of this
// frame, so consumers see a confirmation on each frame it persists;
// newly holds the subset that crossed into confirmed on this frame. An
// event stream that pauses longer than the reset timeout forfeits its
// accumulated persistence and its confirmed status.
func (p *PersistenceFilter) Observe(events []CompensationEvent, now time.Time) (active, newly []CompensationEvent) {
	p.expire(now)

	for _, ev := range events {
		key := debounceKey{Type: ev.Type, Severity: ev.Severity}
		entry, ok := p.entries[key]
		if !ok {
			entry = &debounceEntry{}
			p.entries[key] = entry
		}

		switch entry.state {
		case stateIdle:
			entry.state = stateAccumulating
			entry.firstSeen = now
		case stateConfirmed:
			entry.lastSeen = now
			active = append(active, ev)
			continue
		}
		entry.lastSeen = now

		required := p.cfg.GetPersistenceForSeverity(ev.Severity.String())
		if now.Sub(entry.firstSeen) >= required {
			entry.state = stateConfirmed
			active = append(active, ev)
			newly = append(newly, ev)
		}
	}
	return active, newly
}

// expire resets keys whose observation stream went quiet. Runs against
// the incoming frame timestamp before new observations are applied.
func (p *PersistenceFilter) expire(now time.Time) {
	for key, entry := range p.entries {
		if entry.state != stateIdle && now.Sub(entry.lastSeen) > p.resetTimeout {
			delete(p.entries, key)
		}
	}
}

// Active reports whether the given compensation is currently confirmed.
func (p *PersistenceFilter) Active(t CompensationType, s Severity) bool {
	entry, ok := p.entries[debounceKey{Type: t, Severity: s}]
	return ok && entry.state == stateConfirmed
}

// Reset drops all accumulated and confirmed state, including the
// timestamps it was earned against. Required before replaying frames
// from an earlier point in time, since expiry compares against the
// incoming frame clock.
func (p *PersistenceFilter) Reset() {
	p.entries = make(map[debounceKey]*debounceEntry)
}
