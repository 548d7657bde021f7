// Command session-plot renders a recorded joint's angle trace from a
// session database to a PNG for offline review.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kinemetric/motion.report/internal/sessiondb"
)

func main() {
	dbPath := flag.String("db", "sessions.db", "session database path")
	sessionID := flag.String("session", "", "session id (defaults to the most recent)")
	side := flag.String("side", "right", "left or right")
	joint := flag.String("joint", "elbow_flexion", "joint name")
	output := flag.String("o", "trace.png", "output PNG path")
	flag.Parse()

	db, err := sessiondb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session database: %v", err)
	}
	defer db.Close()

	if *sessionID == "" {
		sessions, err := db.Sessions()
		if err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatal("no sessions recorded")
		}
		*sessionID = sessions[0].ID
		log.Printf("using most recent session %s", *sessionID)
	}

	trace, err := db.AngleTrace(*sessionID, *side, *joint)
	if err != nil {
		log.Fatalf("failed to load angle trace: %v", err)
	}
	if len(trace) == 0 {
		log.Fatalf("no valid samples for %s_%s in session %s", *side, *joint, *sessionID)
	}

	t0 := trace[0].RecordedAt
	pts := make(plotter.XYs, 0, len(trace))
	for _, p := range trace {
		pts = append(pts, plotter.XY{X: p.RecordedAt.Sub(t0).Seconds(), Y: p.AngleDeg})
	}

	p := plot.New()
	p.Title.Text = *side + " " + *joint
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Angle (deg)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("failed to build line: %v", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(*sessionID, line)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, *output); err != nil {
		log.Fatalf("save plot: %v", err)
	}
	log.Printf("✓ Created: %s (%d samples)", *output, len(pts))
}
