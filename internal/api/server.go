package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ren-perez/saldo-backend/internal/api/handlers"
	"github.com/ren-perez/saldo-backend/internal/api/middleware"
	"github.com/ren-perez/saldo-backend/internal/application/service"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Services bundles the application services the API exposes.
type Services struct {
	Rules          *service.RuleService
	Plans          *service.PlanService
	Allocations    *service.AllocationService
	Matches        *service.MatchService
	Transfers      *service.TransferService
	Reconciliation *service.ReconciliationService
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	services   Services
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		repo:     repo,
		services: services,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", handlers.UserHeader},
	}
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	rulesHandler := handlers.NewRulesHandler(s.services.Rules)
	plansHandler := handlers.NewPlansHandler(s.services.Plans, s.services.Matches, s.services.Reconciliation)
	allocationsHandler := handlers.NewAllocationsHandler(s.services.Allocations, s.services.Matches)
	transfersHandler := handlers.NewTransfersHandler(s.services.Transfers)
	transactionsHandler := handlers.NewTransactionsHandler(s.repo, s.services.Matches)

	s.router.Route("/api", func(r chi.Router) {
		// Allocation rules
		r.Get("/rules", rulesHandler.List)
		r.Post("/rules", rulesHandler.Create)
		r.Post("/rules/reorder", rulesHandler.Reorder)
		r.Put("/rules/{ruleID}", rulesHandler.Update)
		r.Delete("/rules/{ruleID}", rulesHandler.Delete)
		r.Post("/rules/{ruleID}/toggle", rulesHandler.Toggle)

		// Income plans
		r.Get("/plans", plansHandler.List)
		r.Post("/plans", plansHandler.Create)
		r.Get("/plans/{planID}", plansHandler.Get)
		r.Delete("/plans/{planID}", plansHandler.Delete)
		r.Post("/plans/{planID}/missed", plansHandler.MarkMissed)
		r.Delete("/plans/{planID}/missed", plansHandler.RevertMissed)
		r.Post("/plans/{planID}/match", plansHandler.Match)
		r.Delete("/plans/{planID}/match", plansHandler.Unmatch)
		r.Get("/plans/{planID}/suggestions", plansHandler.Suggestions)
		r.Get("/plans/{planID}/checklist", plansHandler.Checklist)

		// Waterfall and allocation records
		r.Post("/allocations/preview", allocationsHandler.Preview)
		r.Post("/plans/{planID}/allocations/run", allocationsHandler.Run)
		r.Get("/plans/{planID}/allocations", allocationsHandler.ListForPlan)
		r.Post("/plans/{planID}/allocations", allocationsHandler.Add)
		r.Put("/allocations/{recordID}", allocationsHandler.UpdateAmount)
		r.Delete("/allocations/{recordID}", allocationsHandler.Delete)
		r.Post("/allocations/{recordID}/complete", allocationsHandler.MarkComplete)
		r.Delete("/allocations/{recordID}/complete", allocationsHandler.UnmarkComplete)
		r.Post("/allocations/{recordID}/matches", allocationsHandler.Match)
		r.Get("/allocations/{recordID}/suggestions", allocationsHandler.Suggestions)
		r.Delete("/matches/{matchID}", allocationsHandler.Unmatch)

		// Transfers
		r.Get("/transfers/potential", transfersHandler.Potential)
		r.Post("/transfers/pair", transfersHandler.Pair)
		r.Post("/transfers/unpair", transfersHandler.Unpair)
		r.Post("/transfers/ignore", transfersHandler.Ignore)
		r.Delete("/transfers/ignore", transfersHandler.Unignore)
		r.Get("/transfers/ignored", transfersHandler.Ignored)

		// Collaborator reads
		r.Get("/transactions", transactionsHandler.List)
		r.Get("/transactions/{transactionID}/plans", transactionsHandler.Plans)
		r.Get("/accounts", transactionsHandler.Accounts)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// NewServices wires the application services over one repository.
func NewServices(repo storage.Repository, matching config.MatchingConfig, logger *slog.Logger) Services {
	return Services{
		Rules:          service.NewRuleService(repo, logger),
		Plans:          service.NewPlanService(repo, logger),
		Allocations:    service.NewAllocationService(repo, logger),
		Matches:        service.NewMatchService(repo, matching, logger),
		Transfers:      service.NewTransferService(repo, matching, logger),
		Reconciliation: service.NewReconciliationService(repo, logger),
	}
}
