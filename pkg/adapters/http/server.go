package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/internal/presentation/graph"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Refresher runs one fetch-translate-register cycle and reports how many descriptors
// were registered.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context) (int, error)

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context) (int, error) { return f(ctx) }

// Server exposes a catalog over HTTP.
type Server struct {
	Catalog   ports.Catalog
	Refresher Refresher
	SiteName  string
	Version   string

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRefresher enables POST /refresh.
func WithRefresher(r Refresher) Option {
	return func(s *Server) {
		s.Refresher = r
	}
}

// WithMetricsHandler mounts h (usually promhttp) at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithInfo sets the site name and version reported by GET /info.
func WithInfo(siteName, version string) Option {
	return func(s *Server) {
		s.SiteName = siteName
		s.Version = strings.TrimSpace(version)
	}
}

// WithLogger sets a custom structured logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for a catalog.
func NewHandler(catalog ports.Catalog, opts ...Option) http.Handler {
	s := &Server{
		Catalog: catalog,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/descriptors", s.ListDescriptors)
	r.Get("/descriptors/*", s.GetDescriptor)
	r.Get("/graph", s.GetGraph)
	r.Post("/refresh", s.Refresh)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"site":      s.SiteName,
		"version":   s.Version,
		"refreshes": s.Refresher != nil,
	})
}

// ListDescriptors handles GET /descriptors. The optional kind query parameter filters
// by content type.
func (s *Server) ListDescriptors(w http.ResponseWriter, r *http.Request) {
	descs, err := s.Catalog.List(r.Context())
	if err != nil {
		s.fail(w, "List descriptors failed", err)
		return
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		if !domain.ContentType(kind).Valid() {
			http.Error(w, "Unknown kind", http.StatusBadRequest)
			return
		}
		filtered := descs[:0]
		for _, d := range descs {
			if string(d.Kind) == kind {
				filtered = append(filtered, d)
			}
		}
		descs = filtered
	}
	s.writeJSON(w, http.StatusOK, descs)
}

// GetDescriptor handles GET /descriptors/{key...}.
func (s *Server) GetDescriptor(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseKey(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, "Invalid key", http.StatusBadRequest)
		return
	}

	d, err := s.Catalog.Get(r.Context(), key)
	if err != nil {
		s.fail(w, "Get descriptor failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// GetGraph handles GET /graph and returns a Mermaid flowchart. The optional focus query
// parameter highlights one descriptor and its dependencies.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	descs, err := s.Catalog.List(r.Context())
	if err != nil {
		s.fail(w, "Graph failed", err)
		return
	}

	var overlay *graph.Overlay
	if focus := r.URL.Query().Get("focus"); focus != "" {
		overlay = &graph.Overlay{Focus: focus}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(descs, overlay)))
}

// Refresh handles POST /refresh.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	if s.Refresher == nil {
		http.Error(w, "Refresh is not enabled", http.StatusNotImplemented)
		return
	}
	n, err := s.Refresher.Refresh(r.Context())
	if err != nil {
		s.fail(w, "Refresh failed", err)
		return
	}
	s.logger.Info("Refresh completed", "registered", n)
	s.writeJSON(w, http.StatusOK, map[string]int{"registered": n})
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDescriptorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuthentication), errors.Is(err, domain.ErrRemoteAPI):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrTranslation):
		status = http.StatusUnprocessableEntity
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Warn(msg, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
