package serve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/eventstore"
	"github.com/KRR-Oxford/docnav/internal/metrics"
)

// Server exposes the rendered site, run history, and metrics over HTTP.
type Server struct {
	cfg        config.ServeConfig
	siteDir    string
	projection *eventstore.RunHistoryProjection
	registry   *prom.Registry
	httpServer *http.Server
}

// NewServer creates the preview HTTP server.
func NewServer(cfg config.ServeConfig, siteDir string, projection *eventstore.RunHistoryProjection, registry *prom.Registry) *Server {
	s := &Server{
		cfg:        cfg,
		siteDir:    siteDir,
		projection: projection,
		registry:   registry,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/runs/", s.handleRun)
	if s.cfg.Metrics && s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.Handle("/", http.FileServer(http.Dir(s.siteDir)))

	return mux
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.cfg.Listen, "site_dir", s.siteDir)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus returns recent check runs, newest first.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.projection == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": s.projection.Recent(20)})
}

// handleRun returns a single run summary by ID.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Path[len("/api/runs/"):]
	if runID == "" || s.projection == nil {
		http.NotFound(w, r)
		return
	}
	summary := s.projection.Get(runID)
	if summary == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
