// Package api wires the domain handlers into one HTTP server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/FairForge/dctip/internal/alerts"
	"github.com/FairForge/dctip/internal/auth"
	"github.com/FairForge/dctip/internal/collaboration"
	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/compliance"
	"github.com/FairForge/dctip/internal/config"
	"github.com/FairForge/dctip/internal/dashboard"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/FairForge/dctip/internal/metrics"
	"github.com/FairForge/dctip/internal/threats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const Version = "1.0.0"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the server routes to. Metrics and DB may be nil.
type Dependencies struct {
	Auth          *auth.Service
	Threats       *threats.Service
	Ledger        *ledger.Service
	Compliance    *compliance.Service
	Alerts        *alerts.Service
	Collaboration *collaboration.Service
	Dashboard     *dashboard.Service
	Metrics       *metrics.Metrics
	DB            Pinger
}

type Server struct {
	config     *config.Config
	logger     *zap.Logger
	deps       Dependencies
	router     chi.Router
	limiter    *RateLimiter
	httpServer *http.Server
	startTime  time.Time
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		deps:      deps,
		router:    chi.NewRouter(),
		limiter:   NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestContext)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware(s.deps.Metrics))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	authHandler := auth.NewAPIHandler(s.deps.Auth, s.logger)
	threatHandler := threats.NewAPIHandler(s.deps.Threats, s.logger)
	ledgerHandler := ledger.NewAPIHandler(s.deps.Ledger, s.logger)
	complianceHandler := compliance.NewAPIHandler(s.deps.Compliance, s.logger)
	alertHandler := alerts.NewAPIHandler(s.deps.Alerts, s.logger)
	collaborationHandler := collaboration.NewAPIHandler(s.deps.Collaboration, s.logger)
	dashboardHandler := dashboard.NewAPIHandler(s.deps.Dashboard, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Route("/auth", func(r chi.Router) {
			authHandler.PublicRoutes(r)
			r.With(s.deps.Auth.RequireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.deps.Auth.RequireAuth)
			r.Use(RateLimitMiddleware(s.limiter, s.deps.Metrics, s.logger))

			r.Route("/threats", threatHandler.ThreatRoutes)
			r.Route("/incidents", threatHandler.IncidentRoutes)
			r.Route("/ledger", ledgerHandler.Routes)
			r.Route("/compliance", complianceHandler.Routes)
			r.Route("/alerts", alertHandler.AlertRoutes)
			r.Route("/alert-configs", alertHandler.ConfigRoutes)
			r.Route("/collaboration", collaborationHandler.Routes)
			r.Get("/dashboard/stats", dashboardHandler.HandleStats)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := common.WriteJSON(w, status, v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"uptime":  time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.respond(w, http.StatusServiceUnavailable, map[string]interface{}{
				"ready": false,
				"error": "database unavailable",
			})
			return
		}
	}
	s.respond(w, http.StatusOK, map[string]interface{}{
		"ready":     true,
		"memory_mb": getMemoryUsageMB(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"version": Version,
		"go":      runtime.Version(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"message": "DCTIP API - Decentralized Cybersecurity Threat Intelligence Platform",
	})
}

func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.Int("port", s.config.Server.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func getMemoryUsageMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024
}
