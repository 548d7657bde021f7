package sessiondb

import (
	"database/sql"
	"fmt"
	"time"
)

// Session is one recorded capture session.
type Session struct {
	ID         string
	StartedAt  time.Time
	EndedAt    sql.NullTime
	PoseSchema string
	View       string
	ActiveSide string
}

// MeasurementRow is one stored joint measurement.
type MeasurementRow struct {
	SessionID  string
	FrameIndex uint64
	RecordedAt time.Time
	Joint      string
	Side       string
	AngleDeg   float64
	Valid      bool
	Plane      string
	Confidence float64
	Warnings   string

	// Temporal stats for the joint at this frame; Null until the sliding
	// window has enough samples.
	TrendDegPerSec sql.NullFloat64
	JitterDeg      sql.NullFloat64
	Anomaly        bool
}

// EventRow is one stored compensation event.
type EventRow struct {
	SessionID  string
	FrameIndex uint64
	RecordedAt time.Time
	Type       string
	Severity   string
	Value      float64
	Unit       string
	Confidence float64
	Confirmed  bool
	Detail     string
}

// AnglePoint is one sample of a joint's angle trace.
type AnglePoint struct {
	FrameIndex uint64
	RecordedAt time.Time
	AngleDeg   float64
	Confidence float64
}

// CreateSession registers a new session row.
func (db *DB) CreateSession(id string, startedAt time.Time, poseSchema, view, activeSide string) error {
	_, err := db.Exec(`
		INSERT INTO sessions (id, started_at, pose_schema, view, active_side)
		VALUES (?, ?, ?, ?, ?)`,
		id, startedAt, poseSchema, view, activeSide)
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (db *DB) EndSession(id string, endedAt time.Time) error {
	_, err := db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, endedAt, id)
	if err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	return nil
}

// Sessions lists all recorded sessions, most recent first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT id, started_at, ended_at, pose_schema, view, active_side
		FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.PoseSchema, &s.View, &s.ActiveSide); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertMeasurements writes a batch of measurement rows in one
// transaction.
func (db *DB) InsertMeasurements(rows []MeasurementRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin measurement batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO measurements
		(session_id, frame_index, recorded_at, joint, side, angle_deg, valid, plane, confidence, warnings,
		 trend_deg_s, jitter_deg, anomaly)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare measurement insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.SessionID, r.FrameIndex, r.RecordedAt, r.Joint, r.Side,
			r.AngleDeg, r.Valid, r.Plane, r.Confidence, r.Warnings,
			r.TrendDegPerSec, r.JitterDeg, r.Anomaly); err != nil {
			return fmt.Errorf("insert measurement: %w", err)
		}
	}
	return tx.Commit()
}

// InsertEvents writes a batch of event rows in one transaction.
func (db *DB) InsertEvents(rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin event batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO events
		(session_id, frame_index, recorded_at, type, severity, value, unit, confidence, confirmed, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.SessionID, r.FrameIndex, r.RecordedAt, r.Type, r.Severity,
			r.Value, r.Unit, r.Confidence, r.Confirmed, r.Detail); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// AngleTrace returns the valid angle samples for one side-scoped joint
// across a session, in frame order.
func (db *DB) AngleTrace(sessionID, side, joint string) ([]AnglePoint, error) {
	rows, err := db.Query(`
		SELECT frame_index, recorded_at, angle_deg, confidence
		FROM measurements
		WHERE session_id = ? AND side = ? AND joint = ? AND valid = 1
		ORDER BY frame_index`,
		sessionID, side, joint)
	if err != nil {
		return nil, fmt.Errorf("angle trace %s/%s_%s: %w", sessionID, side, joint, err)
	}
	defer rows.Close()

	var out []AnglePoint
	for rows.Next() {
		var p AnglePoint
		if err := rows.Scan(&p.FrameIndex, &p.RecordedAt, &p.AngleDeg, &p.Confidence); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ConfirmedEvents returns the confirmed compensation events of a
// session, in frame order.
func (db *DB) ConfirmedEvents(sessionID string) ([]EventRow, error) {
	rows, err := db.Query(`
		SELECT session_id, frame_index, recorded_at, type, severity, value, unit, confidence, confirmed, detail
		FROM events
		WHERE session_id = ? AND confirmed = 1
		ORDER BY frame_index`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("confirmed events %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.SessionID, &e.FrameIndex, &e.RecordedAt, &e.Type, &e.Severity,
			&e.Value, &e.Unit, &e.Confidence, &e.Confirmed, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneSessionsBefore deletes sessions that started before cutoff along
// with their measurements and events. Returns the number of sessions
// removed.
func (db *DB) PruneSessionsBefore(cutoff time.Time) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM measurements WHERE session_id IN
		(SELECT id FROM sessions WHERE started_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("prune measurements: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM events WHERE session_id IN
		(SELECT id FROM sessions WHERE started_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM sessions WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// JointNames returns the distinct side-scoped joints recorded for a
// session, e.g. for chart menus.
func (db *DB) JointNames(sessionID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT DISTINCT side || '_' || joint
		FROM measurements WHERE session_id = ? ORDER BY 1`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("joint names %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
