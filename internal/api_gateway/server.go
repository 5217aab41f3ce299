package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/contract-payment-ledger/internal/api_gateway/handler"
	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/contract-payment-ledger/internal/api_gateway/service"
	"github.com/contract-payment-ledger/internal/config"
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/gin-gonic/gin"
)

// Services groups everything the HTTP surface calls into
type Services struct {
	Contracts     engine.ContractService
	Progress      engine.ProgressService
	Validator     engine.ContractValidator
	Audit         service.AuditService
	Recalculation service.RecalculationService
	Authorize     middleware.Authorizer
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	contractHandler := handler.NewContractHandler(log, services.Contracts, services.Validator)
	progressHandler := handler.NewProgressHandler(log, services.Progress, services.Recalculation)
	auditHandler := handler.NewAuditHandler(log, services.Audit)

	setupRouter(log, httpRouter, services.Authorize, contractHandler, progressHandler, auditHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most ctx's deadline
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
