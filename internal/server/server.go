// Package server exposes the reliability layer over HTTP so external
// workflow engines can report outcomes with a webhook instead of the CLI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/guardrail-oss/guardrail/internal/telemetry"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
)

// Server is the guardrail webhook ingestion server.
type Server struct {
	client *guardrail.Client
	logger *telemetry.Logger
}

// New creates a new server instance.
func New(client *guardrail.Client, logger *telemetry.Logger) *Server {
	return &Server{
		client: client,
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := s.setupRoutes()

	srv := &http.Server{
		Addr:              addr,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting guardrail webhook server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Workflow lifecycle hooks
	mux.HandleFunc("POST /hooks/started", s.handleHookStarted)
	mux.HandleFunc("POST /hooks/completed", s.handleHookCompleted)
	mux.HandleFunc("POST /hooks/failed", s.handleHookFailed)

	// Completion routing
	mux.HandleFunc("POST /route", s.handleRoute)

	// Audit trail
	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	mux.HandleFunc("POST /api/events/{id}/resolve", s.handleResolveEvent)

	// Metrics
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	return mux
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
