// Package monitor exposes the pilot's HTTP interface: a health check,
// a JSON status endpoint and debug charts over recorded cycles.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/banshee-data/rover.pilot/internal/drive"
	"github.com/banshee-data/rover.pilot/internal/monitoring"
	"github.com/banshee-data/rover.pilot/internal/telemetry"
)

// StatusSource provides the live loop status. *drive.Driver satisfies it.
type StatusSource interface {
	Status() drive.Status
}

// CycleSource provides recorded cycles for the debug charts.
// *telemetry.Store satisfies it.
type CycleSource interface {
	RunID() string
	RecentCycles(n int) ([]telemetry.CycleRow, error)
}

// WebServer handles the HTTP interface for monitoring the control loop.
type WebServer struct {
	address string
	status  StatusSource
	cycles  CycleSource
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Status  StatusSource
	Cycles  CycleSource // optional; chart endpoints 404 without it
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		status:  config.Status,
		cycles:  config.Cycles,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and blocks until ctx is
// cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Handler returns the route mux, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", ws.handleHealth)
	mux.HandleFunc("/api/status", ws.handleStatus)
	mux.HandleFunc("/debug/clearances", ws.handleClearancesChart)
	mux.HandleFunc("/debug/commands", ws.handleCommandsChart)

	return mux
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if ws.status == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no status source")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ws.status.Status()); err != nil {
		monitoring.Logf("failed to encode status: %v", err)
	}
}
