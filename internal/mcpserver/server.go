package mcpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Server exposes the workflow engine to MCP clients. Every tool call is
// proxied to the REST API rather than touching the database directly.
type Server struct {
	router chi.Router
	logger zerolog.Logger
}

// New creates an MCP server whose tools call the REST API at apiURL.
func New(apiURL string, logger zerolog.Logger) *Server {
	client := newAPIClient(apiURL, logger)
	tools := buildTools(client)

	mcpSrv := server.NewMCPServer(
		"flowline",
		"1.0.0",
		server.WithInstructions("Workflow orchestration tools: start and inspect workflow instances, resolve approvals, and auto-assign tasks."),
	)
	mcpSrv.AddTools(tools...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv,
		server.WithEndpointPath("/"),
	))

	logger.Info().Int("tools", len(tools)).Msg("mounted MCP endpoint at /mcp")

	return &Server{
		router: router,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
