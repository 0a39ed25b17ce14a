package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/treeline-ai/treeline/internal/config"
	"github.com/treeline-ai/treeline/internal/oracle"
	"github.com/treeline-ai/treeline/internal/pipeline"
)

// Server is the HTTP API server for treeline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	runner       *pipeline.Runner
	oracle       *oracle.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, runner *pipeline.Runner, client *oracle.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		runner:       runner,
		oracle:       client,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.TreelineAPIKey, s.log))

		r.Post("/api/graphs/generate", s.handleGenerate)
		r.Post("/api/graphs", s.handleSubmit)
		r.Get("/api/graphs/{runID}/status", s.handleRunStatus)
		r.Get("/api/graphs/{runID}", s.handleRunResult)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
