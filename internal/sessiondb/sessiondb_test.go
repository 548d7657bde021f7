package sessiondb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m4measure"
	"github.com/kinemetric/motion.report/internal/motion/m5compensation"
	"github.com/kinemetric/motion.report/internal/motion/m6temporal"
	"github.com/kinemetric/motion.report/internal/motion/pipeline"
	"github.com/kinemetric/motion.report/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := Open(path)
	require.NoError(t, err)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, db.Close())

	// Reopening an already-migrated database is a no-op.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.CreateSession("s-1", started, "movenet-17", "frontal", "left"))
	require.NoError(t, db.CreateSession("s-2", started.Add(time.Hour), "blazepose-33", "frontal", "right"))
	require.NoError(t, db.EndSession("s-1", started.Add(10*time.Minute)))

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-2", sessions[0].ID, "most recent first")
	assert.Equal(t, "s-1", sessions[1].ID)
	assert.True(t, sessions[1].EndedAt.Valid)
	assert.False(t, sessions[0].EndedAt.Valid)
	assert.Equal(t, "movenet-17", sessions[1].PoseSchema)
}

func frameResult(sessionID string, idx uint64, ts time.Time, angle float64) *pipeline.Result {
	return &pipeline.Result{
		SessionID:  sessionID,
		FrameIndex: idx,
		Timestamp:  ts,
		Measurements: map[string]m4measure.JointMeasurement{
			"left_elbow_flexion": {
				Joint: m4measure.JointElbowFlexion, Side: m1pose.SideLeft,
				AngleDeg: angle, Valid: true, Plane: m4measure.PlaneSagittal,
				Confidence: 0.9, Timestamp: ts,
			},
			"left_shoulder_flexion": {
				Joint: m4measure.JointShoulderFlexion, Side: m1pose.SideLeft,
				Valid: false, Plane: m4measure.PlaneSagittal, Timestamp: ts,
			},
		},
		Detected: []m5compensation.CompensationEvent{
			{Type: m5compensation.TrunkLean, Severity: m5compensation.SeverityMinimal, Value: 1, Unit: m5compensation.UnitDegrees, Timestamp: ts},
			{Type: m5compensation.ShoulderHike, Severity: m5compensation.SeverityMild, Value: 1.5, Unit: m5compensation.UnitCentimetres, Timestamp: ts},
		},
	}
}

func TestRecorderPersistsResults(t *testing.T) {
	db := openTestDB(t)
	rec := NewRecorder(db, timeutil.RealClock{}, "frontal", "left")
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res := frameResult("s-rec", uint64(i+1), t0.Add(time.Duration(i)*33*time.Millisecond), 40+float64(i))
		if i == 2 {
			res.Confirmed = []m5compensation.CompensationEvent{{
				Type: m5compensation.ShoulderHike, Severity: m5compensation.SeverityMild,
				Value: 1.5, Unit: m5compensation.UnitCentimetres, Timestamp: res.Timestamp,
			}}
		}
		require.NoError(t, rec.RecordResult(res))
	}
	require.NoError(t, rec.Close())

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s-rec", sessions[0].ID)
	assert.True(t, sessions[0].EndedAt.Valid)

	trace, err := db.AngleTrace("s-rec", "left", m4measure.JointElbowFlexion)
	require.NoError(t, err)
	require.Len(t, trace, 3, "only valid measurements appear in the trace")
	assert.Equal(t, uint64(1), trace[0].FrameIndex)
	assert.InDelta(t, 40.0, trace[0].AngleDeg, 1e-9)
	assert.InDelta(t, 42.0, trace[2].AngleDeg, 1e-9)

	confirmed, err := db.ConfirmedEvents("s-rec")
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "shoulder_hike", confirmed[0].Type)
	assert.Equal(t, "mild", confirmed[0].Severity)

	joints, err := db.JointNames("s-rec")
	require.NoError(t, err)
	assert.Equal(t, []string{"left_elbow_flexion", "left_shoulder_flexion"}, joints)
}

func TestRecorderPersistsTemporalStats(t *testing.T) {
	db := openTestDB(t)
	rec := NewRecorder(db, timeutil.RealClock{}, "frontal", "left")
	ts := time.Unix(100, 0)

	res := frameResult("s-temporal", 1, ts, 40)
	res.Temporal = map[string]m6temporal.Stats{
		"left_elbow_flexion": {
			SampleCount:     8,
			TrendDegPerSec:  30,
			TrendValid:      true,
			JitterDeg:       0.5,
			JitterValid:     true,
			AnomalyDetected: true,
		},
	}
	require.NoError(t, rec.RecordResult(res))
	require.NoError(t, rec.Close())

	var trend, jitter sql.NullFloat64
	var anomaly bool
	require.NoError(t, db.QueryRow(`
		SELECT trend_deg_s, jitter_deg, anomaly FROM measurements
		WHERE session_id = ? AND joint = ?`, "s-temporal", m4measure.JointElbowFlexion).
		Scan(&trend, &jitter, &anomaly))
	require.True(t, trend.Valid)
	assert.InDelta(t, 30.0, trend.Float64, 1e-9)
	require.True(t, jitter.Valid)
	assert.InDelta(t, 0.5, jitter.Float64, 1e-9)
	assert.True(t, anomaly)

	// The invalid shoulder measurement has no temporal entry.
	require.NoError(t, db.QueryRow(`
		SELECT trend_deg_s, jitter_deg, anomaly FROM measurements
		WHERE session_id = ? AND joint = ?`, "s-temporal", m4measure.JointShoulderFlexion).
		Scan(&trend, &jitter, &anomaly))
	assert.False(t, trend.Valid)
	assert.False(t, jitter.Valid)
	assert.False(t, anomaly)
}

func TestPruneSessionsBefore(t *testing.T) {
	db := openTestDB(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"s-old", "s-new"} {
		rec := NewRecorder(db, timeutil.RealClock{}, "frontal", "left")
		started := t0.AddDate(0, i, 0)
		require.NoError(t, rec.RecordResult(frameResult(id, 1, started, 40)))
		require.NoError(t, rec.Close())
	}

	pruned, err := db.PruneSessionsBefore(t0.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s-new", sessions[0].ID)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM measurements WHERE session_id = 's-old'`).Scan(&rows))
	assert.Equal(t, 0, rows, "pruned session's measurements removed")
}

func TestRecorderSkipsMinimalDetections(t *testing.T) {
	db := openTestDB(t)
	rec := NewRecorder(db, timeutil.RealClock{}, "frontal", "left")

	res := frameResult("s-min", 1, time.Unix(100, 0), 40)
	require.NoError(t, rec.RecordResult(res))
	require.NoError(t, rec.Close())

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE session_id = ?`, "s-min").Scan(&count))
	assert.Equal(t, 1, count, "minimal-severity detections are not persisted")
}

func TestRecorderFlushesOnInterval(t *testing.T) {
	db := openTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := NewRecorder(db, clock, "frontal", "left")
	t0 := time.Unix(100, 0)

	require.NoError(t, rec.RecordResult(frameResult("s-flush", 1, t0, 40)))
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM measurements`).Scan(&count))
	assert.Equal(t, 0, count, "rows buffer until a flush trigger")

	// Past the flush interval, the next frame forces a write.
	clock.Advance(5 * time.Second)
	require.NoError(t, rec.RecordResult(frameResult("s-flush", 2, t0.Add(33*time.Millisecond), 41)))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM measurements`).Scan(&count))
	assert.Equal(t, 4, count, "both frames' measurements flushed")
}
