package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/contract-payment-ledger/internal/api_gateway/handler"
	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	authorize middleware.Authorizer,
	contractHandler *handler.ContractHandler,
	progressHandler *handler.ProgressHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Actor(authorize))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.POST("/contract-validations", contractHandler.Validate)

		contracts := v1.Group("/contracts")
		{
			contracts.POST("", contractHandler.Create)
			contracts.GET("", contractHandler.List)
			contracts.GET("/:id", contractHandler.GetByID)
			contracts.POST("/:id/changes", contractHandler.AddChange)
			contracts.POST("/:id/payments", contractHandler.CreatePayment)
			contracts.POST("/:id/payments/:round/actions", contractHandler.ExecuteAction)
			contracts.GET("/:id/event-log", contractHandler.GetEventLog)
			contracts.GET("/:id/status-percent", contractHandler.GetStatusPercent)
			contracts.POST("/:id/progress", progressHandler.Calculate)
			contracts.GET("/:id/audit", auditHandler.GetByContractID)
		}

		// Progress of every contract, inline or through the processor
		v1.POST("/progress", progressHandler.CalculateAll)
		v1.POST("/recalculation-requests", progressHandler.Enqueue)

		audit := v1.Group("/audit")
		{
			audit.GET("", auditHandler.GetByTimeRange)
			audit.GET("/:event_id", auditHandler.GetByEventID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
