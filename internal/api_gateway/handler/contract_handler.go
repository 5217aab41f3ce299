package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler handles HTTP requests for contract commands and queries
type ContractHandler struct {
	contractService engine.ContractService
	validator       engine.ContractValidator
	logger          *slog.Logger
}

// NewContractHandler creates a new contract handler
func NewContractHandler(logger *slog.Logger, contractService engine.ContractService, validator engine.ContractValidator) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		validator:       validator,
		logger:          logger,
	}
}

// Create opens a new contract and returns its generated code
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.contractService.CreateContract(c.Request.Context(), engine.CreateContractCommand{
		OrderNo:        req.OrderNo,
		ProjectNo:      req.ProjectNo,
		ProjectName:    req.ProjectName,
		Client:         req.Client,
		ContractAmount: req.ContractAmount,
		Members:        req.Members,
		Auth:           middleware.GetAuthorization(c),
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	response := CreateContractResponse{
		ContractID:   result.ContractID.String(),
		ContractCode: result.ContractCode,
	}
	if result.Contract != nil {
		response.Version = result.Contract.Version
	}
	RespondCreated(c, response)
}

// Validate runs the contract checks without writing anything
func (h *ContractHandler) Validate(c *gin.Context) {
	var req ValidateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	mode, err := engine.ParseValidationMode(req.Mode)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	result, err := h.validator.ValidateContract(c.Request.Context(), req.Contract, mode)
	if err != nil {
		h.logger.Error("Failed to validate contract", "error", err)
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

// List returns contracts page by page in creation order
func (h *ContractHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	page, err := h.contractService.ListContracts(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list contracts", "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, page.Contracts, pagination.Page, pagination.PerPage, int(page.Total))
}

// GetByID returns the full contract document
func (h *ContractHandler) GetByID(c *gin.Context) {
	id, ok := h.contractID(c)
	if !ok {
		return
	}

	ct, err := h.contractService.GetContract(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, ct)
}

// AddChange appends an Increase or Decrease to the contract ledger
func (h *ContractHandler) AddChange(c *gin.Context) {
	id, ok := h.contractID(c)
	if !ok {
		return
	}

	var req AddChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.contractService.AddContractChange(c.Request.Context(), engine.AddChangeCommand{
		ContractID:    id,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Note:          req.Note,
		Auth:          middleware.GetAuthorization(c),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, result)
}

// CreatePayment opens the next payment round
func (h *ContractHandler) CreatePayment(c *gin.Context) {
	id, ok := h.contractID(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.contractService.CreatePaymentRequest(c.Request.Context(), engine.CreatePaymentCommand{
		ContractID:    id,
		Amount:        req.Amount,
		Percent:       req.Percent,
		Note:          req.Note,
		Auth:          middleware.GetAuthorization(c),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, result)
}

// ExecuteAction applies a workflow action to one payment round
func (h *ContractHandler) ExecuteAction(c *gin.Context) {
	id, ok := h.contractID(c)
	if !ok {
		return
	}

	round, err := strconv.Atoi(c.Param("round"))
	if err != nil || round < 1 {
		RespondBadRequest(c, "Invalid payment round")
		return
	}

	var req ExecuteActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.contractService.ExecutePaymentAction(c.Request.Context(), engine.ExecuteActionCommand{
		ContractID:    id,
		Round:         round,
		Action:        req.Action,
		Note:          req.Note,
		Auth:          middleware.GetAuthorization(c),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

// GetEventLog returns the human-readable history of the contract
func (h *ContractHandler) GetEventLog(c *gin.Context) {
	id, ok := h.contractID(c)
	if !ok {
		return
	}

	events, err := h.contractService.GetEventLog(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, EventLogResponse{Events: events})
}

// GetStatusPercent returns the share of the contract amount held in the status query parameter
func (h *ContractHandler) GetStatusPercent(c *gin.Context) {
	id, ok := h.contractID(c)
	if !ok {
		return
	}

	status := c.Query("status")
	percent, err := h.contractService.GetStatusPercent(c.Request.Context(), id, status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, StatusPercentResponse{Status: status, Percent: percent})
}

func (h *ContractHandler) contractID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid contract ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid contract ID")
		return uuid.Nil, false
	}
	return id, true
}
