package server

import (
	"log/slog"
	"net/http"

	"shopping-trends/internal/handlers"
	"shopping-trends/internal/services"
)

type Server struct {
	reports     *services.Reports
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(reports *services.Reports, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		reports:     reports,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(reports, logger),
		sseHandlers: handlers.NewSSEHandlers(reports, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/charts", s.apiHandlers.HandleCharts)
	s.mux.HandleFunc("GET /api/charts/{id}", s.apiHandlers.HandleChart)
	s.mux.HandleFunc("GET /api/inspection", s.apiHandlers.HandleInspection)

	// Rendered artifacts
	s.mux.HandleFunc("GET /charts/{file}", s.apiHandlers.HandleArtifact)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/charts/{id}", s.sseHandlers.HandleChart)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
