package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/outbox"
	"github.com/jackc/pgx/v5"
)

type OutboxRecorderImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxRecorder(outboxRepo outbox.Repository, logger *slog.Logger) OutboxRecorder {
	return &OutboxRecorderImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record writes entry as a pending outbox message using tx
func (r *OutboxRecorderImpl) Record(ctx context.Context, tx pgx.Tx, entry *audit.Entry) error {
	logger := r.logger
	if entry.CorrelationID != "" {
		logger = r.logger.With("correlation_id", entry.CorrelationID)
	}

	message, err := outbox.NewMessage(entry)
	if err != nil {
		logger.Error("Failed to create outbox message (marshal payload)",
			"contract_id", entry.ContractID.String(),
			"event_type", entry.Type,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for contract %s: %w", entry.ContractID.String(), err)
	}

	if err = r.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		logger.Error("Failed to create outbox message",
			"contract_id", entry.ContractID.String(),
			"event_id", entry.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for contract %s: %w", entry.ContractID.String(), err)
	}

	logger.Debug("Outbox message created",
		"contract_id", entry.ContractID.String(),
		"event_type", entry.Type,
		"outbox_id", message.ID,
	)
	return nil
}
