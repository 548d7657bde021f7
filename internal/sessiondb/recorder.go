package sessiondb

import (
	"database/sql"
	"strings"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m5compensation"
	"github.com/kinemetric/motion.report/internal/motion/pipeline"
	"github.com/kinemetric/motion.report/internal/timeutil"
)

const (
	// defaultBatchSize flushes roughly every two seconds of 30fps frames
	// (a dozen measurements per frame).
	defaultBatchSize = 512

	// defaultFlushInterval bounds how stale buffered rows may get when
	// frames arrive slowly.
	defaultFlushInterval = 2 * time.Second
)

// Recorder implements pipeline.RecorderSink, buffering rows and writing
// them in batched transactions. Owned by the pipeline's goroutine; only
// Close may be called from elsewhere, after processing has stopped.
type Recorder struct {
	db            *DB
	clock         timeutil.Clock
	batchSize     int
	flushInterval time.Duration

	sessionID    string
	started      bool
	lastFrameTS  time.Time
	lastFlush    time.Time
	measurements []MeasurementRow
	events       []EventRow

	view       string
	activeSide string
}

// NewRecorder builds a batching recorder over db. view and activeSide
// are stored as session metadata.
func NewRecorder(db *DB, clock timeutil.Clock, view, activeSide string) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{
		db:            db,
		clock:         clock,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		view:          view,
		activeSide:    activeSide,
	}
}

// RecordResult buffers one frame's output, flushing when the batch fills
// or the flush interval lapses.
func (r *Recorder) RecordResult(res *pipeline.Result) error {
	if !r.started {
		schema := ""
		if res.Smoothed != nil {
			schema = string(res.Smoothed.Schema)
		}
		if err := r.db.CreateSession(res.SessionID, res.Timestamp, schema, r.view, r.activeSide); err != nil {
			return err
		}
		r.sessionID = res.SessionID
		r.started = true
		r.lastFlush = r.clock.Now()
	}
	r.lastFrameTS = res.Timestamp

	for key, m := range res.Measurements {
		row := MeasurementRow{
			SessionID:  res.SessionID,
			FrameIndex: res.FrameIndex,
			RecordedAt: res.Timestamp,
			Joint:      m.Joint,
			Side:       string(m.Side),
			AngleDeg:   m.AngleDeg,
			Valid:      m.Valid,
			Plane:      string(m.Plane),
			Confidence: m.Confidence,
			Warnings:   strings.Join(m.Warnings, "; "),
		}
		if ts, ok := res.Temporal[key]; ok {
			if ts.TrendValid {
				row.TrendDegPerSec = sql.NullFloat64{Float64: ts.TrendDegPerSec, Valid: true}
			}
			if ts.JitterValid {
				row.JitterDeg = sql.NullFloat64{Float64: ts.JitterDeg, Valid: true}
			}
			row.Anomaly = ts.AnomalyDetected
		}
		r.measurements = append(r.measurements, row)
	}
	// Raw detections at minimal severity are steady-state noise; persist
	// the graded deviations and all confirmations.
	for _, ev := range res.Detected {
		if ev.Severity == m5compensation.SeverityMinimal {
			continue
		}
		r.events = append(r.events, eventRow(res, ev, false))
	}
	for _, ev := range res.Confirmed {
		r.events = append(r.events, eventRow(res, ev, true))
	}

	if len(r.measurements) >= r.batchSize || r.clock.Since(r.lastFlush) >= r.flushInterval {
		return r.Flush()
	}
	return nil
}

func eventRow(res *pipeline.Result, ev m5compensation.CompensationEvent, confirmed bool) EventRow {
	return EventRow{
		SessionID:  res.SessionID,
		FrameIndex: res.FrameIndex,
		RecordedAt: ev.Timestamp,
		Type:       string(ev.Type),
		Severity:   ev.Severity.String(),
		Value:      ev.Value,
		Unit:       string(ev.Unit),
		Confidence: ev.Confidence,
		Confirmed:  confirmed,
		Detail:     ev.Detail,
	}
}

// Flush writes all buffered rows.
func (r *Recorder) Flush() error {
	if err := r.db.InsertMeasurements(r.measurements); err != nil {
		return err
	}
	r.measurements = r.measurements[:0]
	if err := r.db.InsertEvents(r.events); err != nil {
		return err
	}
	r.events = r.events[:0]
	r.lastFlush = r.clock.Now()
	return nil
}

// Close flushes outstanding rows and stamps the session's end time with
// the last frame timestamp seen.
func (r *Recorder) Close() error {
	if !r.started {
		return nil
	}
	if err := r.Flush(); err != nil {
		return err
	}
	return r.db.EndSession(r.sessionID, r.lastFrameTS)
}
