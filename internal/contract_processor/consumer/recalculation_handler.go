package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/contract-payment-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// RecalculationHandler handles progress recalculation requests from Kafka
type RecalculationHandler struct {
	progressService engine.ProgressService
	producer        producers.DeadLetterPublisher
	logger          *slog.Logger
}

// NewRecalculationHandler creates a new handler. producer may be nil when the DLQ is disabled.
func NewRecalculationHandler(
	logger *slog.Logger,
	progressService engine.ProgressService,
	producer producers.DeadLetterPublisher,
) *RecalculationHandler {
	return &RecalculationHandler{
		progressService: progressService,
		producer:        producer,
		logger:          logger,
	}
}

// HandleMessage processes one Kafka message. A nil return commits the offset.
func (h *RecalculationHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.RecalculationRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal recalculation request from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		return h.deadLetter(ctx, key, value, "unmarshal recalculation request: "+err.Error(), err)
	}
	if !request.All && request.ContractID == uuid.Nil {
		err := errors.New("recalculation request names no contract")
		h.logger.Error("Rejected recalculation request", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, err.Error(), err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	if request.All {
		return h.recalculateAll(ctx, logger, &request)
	}

	logger.Info("Received recalculation request", "contract_id", request.ContractID.String(), "requested_by", request.RequestedBy)

	result, err := h.progressService.CalculateContractProgress(ctx, engine.RecalculateCommand{
		ContractID:    request.ContractID,
		RequestedBy:   request.RequestedBy,
		CorrelationID: request.CorrelationID,
	})
	if err != nil {
		// Domain rejections are final; only infrastructure failures are redelivered.
		if contract.KindOf(err) != contract.KindInternal && contract.KindOf(err) != contract.KindConcurrencyConflict {
			logger.Warn("Recalculation rejected", "contract_id", request.ContractID.String(), "error", err)
			return h.deadLetter(ctx, key, value, "recalculation rejected: "+err.Error(), err)
		}
		logger.Error("Failed to recalculate contract progress", "contract_id", request.ContractID.String(), "error", err)
		return fmt.Errorf("recalculating contract %s failed: %w", request.ContractID, err)
	}

	logger.Info("Recalculated contract progress",
		"contract_id", request.ContractID.String(),
		"changed", result.Changed,
		"version", result.Version,
	)
	return nil
}

func (h *RecalculationHandler) recalculateAll(ctx context.Context, logger *slog.Logger, request *shared.RecalculationRequest) error {
	logger.Info("Received batch recalculation request", "requested_by", request.RequestedBy)

	results, err := h.progressService.CalculateAllContractsProgress(ctx, request.RequestedBy, request.CorrelationID)
	if err != nil {
		logger.Error("Batch recalculation failed", "error", err)
		return fmt.Errorf("batch recalculation failed: %w", err)
	}

	changed, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Changed:
			changed++
		}
	}
	// Per-contract failures are retried by the next request, not by redelivery.
	logger.Info("Batch recalculation finished", "total", len(results), "changed", changed, "failed", failed)
	return nil
}

// deadLetter parks value on the DLQ. When that is impossible cause is returned so Kafka redelivers.
func (h *RecalculationHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable message: %w", cause)
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("unprocessable message: %w", cause)
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
