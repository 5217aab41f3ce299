package service

import (
	"context"
	"log/slog"

	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/platform/messaging/producers"
)

// allContractsKey partitions batch requests together
const allContractsKey = "all"

// RecalculationServiceImpl implements the RecalculationService interface
type RecalculationServiceImpl struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewRecalculationService creates a new recalculation service
func NewRecalculationService(logger *slog.Logger, producer producers.MessagePublisher) RecalculationService {
	return &RecalculationServiceImpl{
		producer: producer,
		logger:   logger,
	}
}

// RequestRecalculation publishes request keyed by contract ID, so requests for one contract
// stay ordered on one partition.
func (s *RecalculationServiceImpl) RequestRecalculation(ctx context.Context, request *shared.RecalculationRequest) error {
	key := allContractsKey
	if !request.All {
		key = request.ContractID.String()
	}

	if err := s.producer.Publish(ctx, key, request); err != nil {
		s.logger.Error("Failed to publish recalculation request",
			"key", key,
			"correlation_id", request.CorrelationID,
			"error", err,
		)
		return err
	}

	s.logger.Info("Recalculation request published",
		"key", key,
		"requested_by", request.RequestedBy,
		"correlation_id", request.CorrelationID,
	)
	return nil
}
