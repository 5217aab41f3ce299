package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/contract-payment-ledger/internal/api_gateway"
	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/contract-payment-ledger/internal/api_gateway/service"
	"github.com/contract-payment-ledger/internal/config"
	"github.com/contract-payment-ledger/internal/data/mongo"
	"github.com/contract-payment-ledger/internal/data/postgres"
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/contract-payment-ledger/internal/logger"
	"github.com/contract-payment-ledger/internal/platform/messaging/producers"
	"github.com/contract-payment-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Publishes recalculation requests for the contract processor
	recalcProducer, err := producers.NewRecalculationRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize recalculation request producer", "error", err)
		os.Exit(1)
	}

	contractRepo := postgres.NewContractRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	engineServices, err := engine.CreateServices(postgresDB, contractRepo, outboxRepo, log, cfg)
	if err != nil {
		log.Error("Failed to initialize contract engine", "error", err)
		os.Exit(1)
	}

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Contracts:     engineServices.Contracts,
		Progress:      engineServices.Progress,
		Validator:     engineServices.Validator,
		Audit:         service.NewAuditService(log, auditRepo),
		Recalculation: service.NewRecalculationService(log, recalcProducer),
		Authorize:     middleware.AllowAll,
	})
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the pools they use go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	log.Info("Shutting down recalculation worker pool", "running_workers", engineServices.Progress.Running())
	engineServices.Progress.Shutdown()

	if err = recalcProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
