package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/flowline/internal/api/handler"
	mw "github.com/edvin/flowline/internal/api/middleware"
	"github.com/edvin/flowline/internal/approval"
	"github.com/edvin/flowline/internal/assign"
	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/engine"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
	engine   *engine.Engine
	assigner *assign.Engine
	gate     *approval.Gate
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services, eng *engine.Engine, assigner *assign.Engine, gate *approval.Gate) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		pool:     pool,
		engine:   eng,
		assigner: assigner,
		gate:     gate,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Templates
		template := handler.NewTemplate(s.services.Template)
		r.Get("/templates", template.List)
		r.Post("/templates", template.Create)
		r.Get("/templates/{id}", template.Get)
		r.Put("/templates/{id}", template.Update)
		r.Delete("/templates/{id}", template.Deactivate)

		// Instances
		instance := handler.NewInstance(s.services.Instance, s.engine)
		r.Post("/templates/{id}/instances", instance.Start)
		r.Get("/instances", instance.List)
		r.Get("/instances/{id}", instance.Get)
		r.Post("/instances/{id}/cancel", instance.Cancel)

		// Approvals
		appr := handler.NewApproval(s.services.Approval, s.gate)
		r.Get("/approvals", appr.List)
		r.Post("/approvals/bulk", appr.BulkRespond)
		r.Post("/approvals/{id}/respond", appr.Respond)
		r.Post("/approvals/{id}/delegate", appr.Delegate)

		// Assignment rules
		rule := handler.NewRule(s.services.Rule, s.assigner)
		r.Get("/assignment-rules", rule.List)
		r.Post("/assignment-rules", rule.Create)
		r.Put("/assignment-rules/{id}", rule.Update)
		r.Delete("/assignment-rules/{id}", rule.Delete)
		r.Post("/assignments/auto", rule.AutoAssign)

		// Tasks
		task := handler.NewTask(s.services.Task)
		r.Get("/tasks", task.List)

		// Notifications
		notification := handler.NewNotification(s.services.Notification)
		r.Get("/notifications", notification.List)

		// Users
		user := handler.NewUser(s.services.User)
		r.Get("/users", user.List)
		r.Post("/users", user.Create)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
