// Package http exposes stored runs over a read-only HTTP API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/passgraph"
	"github.com/aretw0/passgraph/internal/presentation/export"
	"github.com/aretw0/passgraph/internal/presentation/graph"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/ports"
)

// APIVersion is the version of the route layout served by NewHandler.
const APIVersion = "0.1.0"

// Server serves runs from a RunStore.
type Server struct {
	Store    ports.RunStore
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger used for encoding failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler over the store.
func NewHandler(store ports.RunStore, opts ...Option) http.Handler {
	s := &Server{
		Store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetRun)
			r.Delete("/", s.DeleteRun)
			r.Get("/components", s.GetComponents)
			r.Get("/graph.gml", s.GetGML)
			r.Get("/graph.mmd", s.GetMermaid)
			r.Get("/view.html", s.GetView)
		})
	})
	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":         "passgraph-http",
		"version":     passgraph.Version,
		"api_version": APIVersion,
	})
}

// RunSummary is one entry of GET /runs.
type RunSummary struct {
	ID         string            `json:"id"`
	Root       string            `json:"root"`
	StopReason domain.StopReason `json:"stop_reason"`
	Nodes      int               `json:"nodes"`
	Edges      int               `json:"edges"`
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}

	runs := make([]RunSummary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Store.Load(r.Context(), id)
		if errors.Is(err, domain.ErrRunNotFound) {
			continue // expired between List and Load
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
			return
		}
		runs = append(runs, RunSummary{
			ID:         rec.ID,
			Root:       rec.Root,
			StopReason: rec.StopReason,
			Nodes:      len(rec.Nodes),
			Edges:      len(rec.Edges),
		})
	}
	s.writeJSON(w, runs)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, rec)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.load(w, r); !ok {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetComponents handles GET /runs/{id}/components.
func (s *Server) GetComponents(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, export.Components(rec))
}

// GetGML handles GET /runs/{id}/graph.gml.
func (s *Server) GetGML(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.WriteGML(w, rec); err != nil {
		s.logger.Error("failed to write gml", "run", rec.ID, "err", err)
	}
}

// GetMermaid handles GET /runs/{id}/graph.mmd.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(rec, graph.OverlayFromRecord(rec)))
}

// GetView handles GET /runs/{id}/view.html.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := export.WriteHTML(w, rec, export.HTMLOptions{}); err != nil {
		s.logger.Error("failed to write html", "run", rec.ID, "err", err)
	}
}

// -- Helpers --

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*domain.RunRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, fmt.Sprintf("run %q not found", id), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}
