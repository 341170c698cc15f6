package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Dot"

const maxBodyBytes = 1 << 20

// Router classifies inbound messages.
type Router interface {
	Route(ctx context.Context, msg routing.Message) (*routing.Decision, error)
}

// Lifecycle advances jobs through triage, updates and dispatch.
type Lifecycle interface {
	Triage(ctx context.Context, content string) (*lifecycle.TriageResult, error)
	Update(ctx context.Context, jobNumber, content string) (*lifecycle.UpdateResult, error)
	Dispatch(ctx context.Context, req lifecycle.DispatchRequest) (*lifecycle.DispatchResult, error)
}

// Options configures the optional parts of the HTTP server.
type Options struct {
	// Auth guards every endpoint except /health. Nil disables auth.
	Auth func(http.Handler) http.Handler
	// MCP is mounted at /mcp when set.
	MCP     http.Handler
	Logger  *slog.Logger
	Version string
}

// Server wires HTTP handlers.
type Server struct {
	router    Router
	lifecycle Lifecycle
	logger    *slog.Logger
	version   string
}

// NewServer creates an HTTP server router with middleware.
func NewServer(router Router, lc Lifecycle, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{router: router, lifecycle: lc, logger: logger, version: opts.Version}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/traffic", srv.handleTraffic)
		r.Post("/triage", srv.handleTriage)
		r.Post("/update", srv.handleUpdate)
		r.Post("/work-to-client", srv.handleWorkToClient)
		r.Post("/feedback", placeholder("Dot Feedback endpoint - coming soon"))
		r.Post("/tracker", placeholder("Dot Tracker endpoint - coming soon"))
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": s.version,
	})
}

func placeholder(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "placeholder",
			"message": message,
		})
	}
}

func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request) {
	var req trafficRequest
	if !s.decode(w, r, &req) {
		return
	}
	decision, err := s.router.Route(r.Context(), req.message())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req triageRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.lifecycle.Triage(r.Context(), req.EmailContent)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.lifecycle.Update(r.Context(), req.JobNumber, req.EmailContent)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWorkToClient(w http.ResponseWriter, r *http.Request) {
	var req workToClientRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.lifecycle.Dispatch(r.Context(), req.dispatch())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decode reads a JSON body into dst. An empty body decodes to the zero
// value so the service reports the missing field.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || err == io.EOF {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Details: err.Error()})
	return false
}
