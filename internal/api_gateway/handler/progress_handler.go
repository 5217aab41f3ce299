package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/contract-payment-ledger/internal/api_gateway/service"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultBatchTimeout bounds an inline recalculation of every contract
const DefaultBatchTimeout = 5 * time.Minute

// ProgressHandler handles progress recalculation, either inline or queued for the processor
type ProgressHandler struct {
	progressService      engine.ProgressService
	recalculationService service.RecalculationService
	batchTimeout         time.Duration
	logger               *slog.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(logger *slog.Logger, progressService engine.ProgressService, recalculationService service.RecalculationService) *ProgressHandler {
	return &ProgressHandler{
		progressService:      progressService,
		recalculationService: recalculationService,
		batchTimeout:         DefaultBatchTimeout,
		logger:               logger,
	}
}

// Calculate recalculates one contract and returns its progress
func (h *ProgressHandler) Calculate(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid contract ID")
		return
	}

	auth := middleware.GetAuthorization(c)
	if !auth.Allowed {
		RespondDomainError(c, unauthorized(auth))
		return
	}

	result, err := h.progressService.CalculateContractProgress(c.Request.Context(), engine.RecalculateCommand{
		ContractID:    id,
		RequestedBy:   auth.Actor.ID,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

// CalculateAll recalculates every contract and reports each outcome
func (h *ProgressHandler) CalculateAll(c *gin.Context) {
	auth := middleware.GetAuthorization(c)
	if !auth.Allowed {
		RespondDomainError(c, unauthorized(auth))
		return
	}

	// a client disconnect must not abandon the contracts not yet visited
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.batchTimeout)
	defer cancel()

	results, err := h.progressService.CalculateAllContractsProgress(ctx, auth.Actor.ID, middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Error("Batch recalculation failed", "error", err)
		RespondDomainError(c, err)
		return
	}

	response := BatchProgressResponse{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Err != nil {
			response.Failed++
		} else {
			response.Succeeded++
		}
	}
	RespondOK(c, response)
}

// Enqueue publishes a recalculation request for the contract processor
func (h *ProgressHandler) Enqueue(c *gin.Context) {
	var req RecalculationRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.All == (req.ContractID != "") {
		RespondBadRequest(c, "Exactly one of contract_id or all must be set")
		return
	}

	auth := middleware.GetAuthorization(c)
	if !auth.Allowed {
		RespondDomainError(c, unauthorized(auth))
		return
	}

	request := &shared.RecalculationRequest{
		All:           req.All,
		RequestedBy:   auth.Actor.ID,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now().UTC(),
	}
	if req.ContractID != "" {
		request.ContractID = uuid.MustParse(req.ContractID)
	}

	if err := h.recalculationService.RequestRecalculation(c.Request.Context(), request); err != nil {
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"contract_id": req.ContractID,
		"all":         req.All,
		"status":      "QUEUED",
	})
}

func unauthorized(auth shared.Authorization) error {
	return contract.ErrUnauthorized{ActorID: auth.Actor.ID, Reason: auth.Reason}
}
