// Package api exposes the HTTP interface for the agenda service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/runs"
	"github.com/hfujimori/agenda-sync/internal/schedule"
)

// Triggerer starts a run on demand and reports whether one is executing.
type Triggerer interface {
	Trigger(ctx context.Context, reason schedule.Reason) (string, error)
	Running() bool
}

// Server wires HTTP handlers to the scheduler and the run store.
type Server struct {
	router  chi.Router
	trigger Triggerer
	store   runs.Provider
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(trigger Triggerer, store runs.Provider, logger *zap.Logger) *Server {
	s := &Server{
		trigger: trigger,
		store:   store,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/runs/latest", s.latestRun)
		r.Post("/trigger", s.triggerRun)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"run_in_flight": s.trigger.Running(),
	})
}

func (s *Server) latestRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.LatestRun(r.Context())
	if errors.Is(err, runs.ErrNoRuns) {
		s.writeError(w, http.StatusNotFound, "no runs recorded yet")
		return
	}
	if err != nil {
		s.logger.Error("failed to load latest run", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	runID, err := s.trigger.Trigger(r.Context(), schedule.ReasonAPI)
	if errors.Is(err, schedule.ErrRunInFlight) {
		s.writeError(w, http.StatusConflict, "a run is already in flight")
		return
	}
	if err != nil {
		// The run started and failed; the run ID still identifies it.
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"run_id": runID,
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"run_id": runID})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
