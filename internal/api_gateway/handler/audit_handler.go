package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/contract-payment-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler serves the audit projection of committed contract events
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// GetByContractID retrieves the paginated audit trail of a contract
func (h *AuditHandler) GetByContractID(c *gin.Context) {
	idParam := c.Param("id")
	contractID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid contract ID", "contract_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid contract ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.auditService.GetAuditTrail(c.Request.Context(), contractID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get audit trail", "contract_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, entries, pagination.Page, pagination.PerPage, int(total))
}

// GetByEventID retrieves one audit entry, returns 404 if it was not projected yet
func (h *AuditHandler) GetByEventID(c *gin.Context) {
	idParam := c.Param("event_id")
	eventID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid event ID")
		return
	}

	entry, err := h.auditService.GetAuditEntry(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("Failed to get audit entry", "event_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	if entry == nil {
		RespondNotFound(c, "Audit entry not found")
		return
	}
	RespondOK(c, entry)
}

// GetByTimeRange retrieves audit entries of all contracts between from and to, newest first
func (h *AuditHandler) GetByTimeRange(c *gin.Context) {
	var params TimeRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	from, err := time.Parse(time.RFC3339, params.From)
	if err != nil {
		RespondBadRequest(c, "Invalid from timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, params.To)
	if err != nil {
		RespondBadRequest(c, "Invalid to timestamp")
		return
	}
	if to.Before(from) {
		RespondBadRequest(c, "to must not be before from")
		return
	}

	entries, err := h.auditService.GetAuditByTimeRange(c.Request.Context(), from, to, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to get audit entries by time range", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, entries)
}
