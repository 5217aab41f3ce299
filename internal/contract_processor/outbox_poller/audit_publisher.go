package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/outbox"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/platform/messaging/producers"
)

// EventPublisher projects one outbox message to its downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// AuditPublisher writes committed contract events to the audit log and the events topic
type AuditPublisher struct {
	outboxRepo outbox.Repository
	auditRepo  audit.Repository
	events     producers.MessagePublisher
	now        func() time.Time
	logger     *slog.Logger
}

// NewAuditPublisher creates a new publisher. events may be nil, then only the audit log is written.
func NewAuditPublisher(
	outboxRepo outbox.Repository,
	auditRepo audit.Repository,
	events producers.MessagePublisher,
	logger *slog.Logger,
) *AuditPublisher {
	return &AuditPublisher{
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// Publish delivers message at least once. An entry already present in the audit log counts as
// written, so a retry after a partial failure only repeats the Kafka publish.
// A message another processor instance has already settled is skipped.
func (p *AuditPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	current, err := p.outboxRepo.GetByEventID(ctx, message.EventID)
	switch {
	case errors.As(err, &outbox.ErrMessageNotFound{}):
		p.logger.Warn("Outbox message vanished before delivery", "outbox_id", message.ID, "event_id", message.EventID)
		return nil
	case err != nil:
		return fmt.Errorf("failed to reload outbox %d: %w", message.ID, err)
	case current.Status != shared.OutboxStatusPending:
		p.logger.Info("Outbox message already settled", "outbox_id", message.ID, "event_id", message.EventID, "status", current.Status)
		return nil
	}

	entry, err := message.GetAuditEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal audit entry from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	publishedAt := p.now()
	entry.PublishedAt = &publishedAt

	err = p.auditRepo.Create(ctx, entry)
	switch {
	case errors.Is(err, audit.ErrDuplicateEntry{}):
		logger.Info("Audit entry already written", "event_id", entry.EventID)
	case err != nil:
		logger.Error("Failed to write audit entry", "event_id", entry.EventID, "contract_id", entry.ContractID, "error", err)
		return fmt.Errorf("failed to write audit entry %s: %w", entry.EventID, err)
	}

	if p.events != nil {
		if err := p.events.Publish(ctx, entry.ContractID.String(), entry); err != nil {
			logger.Error("Failed to publish contract event", "event_id", entry.EventID, "contract_id", entry.ContractID, "error", err)
			return fmt.Errorf("failed to publish contract event %s: %w", entry.EventID, err)
		}
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", entry.EventID, "error", err,
		)
		return fmt.Errorf("event %s delivered, but failed to mark outbox %d as PROCESSED: %w", entry.EventID, message.ID, err)
	}

	logger.Info("Outbox message delivered",
		"outbox_id", message.ID,
		"event_id", entry.EventID,
		"event_type", entry.Type,
		"contract_id", entry.ContractID,
	)
	return nil
}
