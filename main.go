// Command motion-report replays a recorded pose-landmark log through the
// joint-angle analysis pipeline, optionally persisting the session to
// SQLite and serving live diagnostics over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kinemetric/motion.report/internal/config"
	"github.com/kinemetric/motion.report/internal/monitor"
	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/motion/m5compensation"
	"github.com/kinemetric/motion.report/internal/motion/pipeline"
	"github.com/kinemetric/motion.report/internal/poselog"
	"github.com/kinemetric/motion.report/internal/sessiondb"
	"github.com/kinemetric/motion.report/internal/timeutil"
	"github.com/kinemetric/motion.report/internal/version"
)

var (
	input      = flag.String("input", "", "Pose log to analyze (JSONL, one frame per line)")
	configPath = flag.String("config", "", "Tuning config JSON (defaults to built-in values)")
	view       = flag.String("view", "frontal", "Camera view: frontal, sagittal_left, sagittal_right")
	activeSide = flag.String("side", "right", "Side performing the exercise: left or right")
	listen     = flag.String("listen", ":8080", "Diagnostics HTTP listen address (empty to disable)")
	dbPath     = flag.String("db", "", "Session database path (empty to skip recording)")
	retention  = flag.Duration("retention", 0, "Prune recorded sessions older than this on startup (0 keeps everything)")
	realtime   = flag.Bool("realtime", false, "Pace replay by frame timestamps instead of running flat out")
	verbose    = flag.Bool("verbose", false, "Enable per-frame trace logging")
)

func main() {
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}
	log.Printf("motion-report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	pipeline.SetLegacyLogger(os.Stderr)
	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	}

	var tuning *config.TuningConfig
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	} else {
		tuning = config.MustLoadDefaultConfig()
	}

	var db *sessiondb.DB
	var recorder *sessiondb.Recorder
	if *dbPath != "" {
		var err error
		db, err = sessiondb.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open session database: %v", err)
		}
		defer db.Close()
		if *retention > 0 {
			pruned, err := db.PruneSessionsBefore(time.Now().Add(-*retention))
			if err != nil {
				log.Printf("failed to prune old sessions: %v", err)
			} else if pruned > 0 {
				log.Printf("pruned %d sessions older than %s", pruned, *retention)
			}
		}
		recorder = sessiondb.NewRecorder(db, timeutil.RealClock{}, *view, *activeSide)
	}

	pc := pipeline.PipelineConfig{
		Tuning:     tuning,
		View:       m5compensation.ViewOrientation(*view),
		ActiveSide: m1pose.Side(*activeSide),
	}
	if recorder != nil {
		pc.Recorder = recorder
	}
	p, err := pipeline.New(pc)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("failed to open pose log: %v", err)
	}
	defer f.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address: *listen,
			Stats:   p,
			DB:      db,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				log.Printf("diagnostics server error: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		// The replay owns shutdown: when the log is exhausted the whole
		// process winds down, including the diagnostics server.
		defer stop()
		frames, err := runReplay(ctx, poselog.NewDecoder(f), p, timeutil.RealClock{}, *realtime)
		if err != nil {
			log.Printf("replay stopped after %d frames: %v", frames, err)
			return
		}
		stats := p.Stats()
		log.Printf("session %s complete: %d frames processed, %d rejected, %d events confirmed",
			stats.SessionID, stats.FramesProcessed, stats.FramesRejected, stats.EventsConfirmed)
	}()

	wg.Wait()

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			log.Printf("failed to finalize session record: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}
