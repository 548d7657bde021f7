// Package monitor serves the HTTP diagnostics surface: live pipeline
// counters, recorded session queries, rendered angle-trace charts, and a
// live SQL console over the session database. Debug tooling only; it is
// never on the frame-processing path.
package monitor

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/kinemetric/motion.report/internal/httputil"
	"github.com/kinemetric/motion.report/internal/motion/pipeline"
	"github.com/kinemetric/motion.report/internal/sessiondb"
	"github.com/kinemetric/motion.report/internal/version"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// StatsSource exposes live pipeline counters. Implemented by
// *pipeline.Pipeline; an interface here keeps the monitor testable
// without a running session.
type StatsSource interface {
	Stats() pipeline.Stats
}

// WebServer handles the HTTP interface for motion analysis diagnostics.
type WebServer struct {
	address string
	stats   StatsSource
	db      *sessiondb.DB
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Stats   StatsSource
	DB      *sessiondb.DB // optional; session queries 503 without it
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		stats:   config.Stats,
		db:      config.DB,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// Start begins the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/motion/stats", ws.handleStats)
	mux.HandleFunc("/api/motion/sessions", ws.handleSessions)
	mux.HandleFunc("/api/motion/joints", ws.handleJoints)
	mux.HandleFunc("/api/motion/trace", ws.handleTrace)
	mux.HandleFunc("/api/motion/events", ws.handleEvents)
	mux.HandleFunc("/debug/charts/angles", ws.handleAngleChart)

	if ws.db != nil {
		ws.attachAdminRoutes(mux)
	}
	return mux
}

// attachAdminRoutes mounts the live SQL console over the session
// database on the debug handler.
func (ws *WebServer) attachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://sessions.db", ws.db.DB, &tailsql.DBOptions{
		Label: "Session DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no active pipeline")
		return
	}
	httputil.WriteJSONOK(w, ws.stats.Stats())
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session DB not configured")
		return
	}
	sessions, err := ws.db.Sessions()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

func (ws *WebServer) handleJoints(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session DB not configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "session_id is required")
		return
	}
	joints, err := ws.db.JointNames(sessionID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, joints)
}

// traceParams extracts and validates the session/side/joint triple used
// by the trace and chart endpoints.
func (ws *WebServer) traceParams(w http.ResponseWriter, r *http.Request) (sessionID, side, joint string, ok bool) {
	q := r.URL.Query()
	sessionID, side, joint = q.Get("session_id"), q.Get("side"), q.Get("joint")
	if sessionID == "" || side == "" || joint == "" {
		httputil.BadRequest(w, "session_id, side, and joint are required")
		return "", "", "", false
	}
	return sessionID, side, joint, true
}

func (ws *WebServer) handleTrace(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session DB not configured")
		return
	}
	sessionID, side, joint, ok := ws.traceParams(w, r)
	if !ok {
		return
	}
	trace, err := ws.db.AngleTrace(sessionID, side, joint)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, trace)
}

func (ws *WebServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session DB not configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "session_id is required")
		return
	}
	events, err := ws.db.ConfirmedEvents(sessionID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, events)
}
