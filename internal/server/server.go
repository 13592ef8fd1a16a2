// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the answer engine over HTTP: document ingestion,
// inspection, full-text search, and grounded question answering.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/registry"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Server wires the HTTP routes to the registry and the pipeline.
type Server struct {
	cfg      types.ServerConfig
	log      *zap.Logger
	registry *registry.Registry
	store    *registry.Store
	pipeline *pipeline.Pipeline
	router   *mux.Router
}

// New builds a server. The store may be nil; full-text search is then
// disabled.
func New(cfg types.ServerConfig, log *zap.Logger, reg *registry.Registry, store *registry.Store, p *pipeline.Pipeline) (*Server, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry required")
	}
	if p == nil {
		return nil, fmt.Errorf("pipeline required")
	}

	s := &Server{
		cfg:      cfg.WithDefaults(),
		log:      log,
		registry: reg,
		store:    store,
		pipeline: p,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/docs", s.instrument("ingest", s.handleIngest)).Methods(http.MethodPost)
	api.HandleFunc("/docs", s.instrument("list_docs", s.handleListDocs)).Methods(http.MethodGet)
	api.HandleFunc("/docs/{id}", s.instrument("get_doc", s.handleGetDoc)).Methods(http.MethodGet)
	api.HandleFunc("/docs/{id}", s.instrument("delete_doc", s.handleDeleteDoc)).Methods(http.MethodDelete)
	api.HandleFunc("/docs/{id}/paragraphs/{pid}", s.instrument("get_paragraph", s.handleGetParagraph)).Methods(http.MethodGet)
	api.HandleFunc("/docs/{id}/motivations", s.instrument("motivations", s.handleMotivations)).Methods(http.MethodGet)
	api.HandleFunc("/docs/{id}/ask", s.instrument("ask", s.handleAsk)).Methods(http.MethodPost)
	api.HandleFunc("/search", s.instrument("search", s.handleSearch)).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler returns the root handler, exported for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is canceled, then shuts down gracefully
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request logging and metrics.
func (s *Server) instrument(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h(rec, r)

		requestsTotal.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		s.log.Info("request",
			zap.String("handler", name),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorStatus maps pipeline and registry failures onto HTTP status codes.
// Refusals never reach this path; they are normal answers.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrNotReady):
		return http.StatusConflict
	default:
		return modelErrorStatus(err)
	}
}
