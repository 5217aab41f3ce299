package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditServiceImpl implements the AuditService interface
type AuditServiceImpl struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(logger *slog.Logger, auditRepo audit.Repository) AuditService {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// GetAuditTrail retrieves a page of a contract's audit trail along with its total size
func (s *AuditServiceImpl) GetAuditTrail(ctx context.Context, contractID uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.auditRepo.GetByContractID(ctx, contractID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to get audit trail", "contract_id", contractID.String(), "error", err)
		return nil, 0, err
	}

	total, err := s.auditRepo.CountByContractID(ctx, contractID)
	if err != nil {
		s.logger.Error("Failed to count audit entries", "contract_id", contractID.String(), "error", err)
		return nil, 0, err
	}

	return entries, total, nil
}

// GetAuditEntry retrieves an audit entry by its event ID. Returns nil if not found
func (s *AuditServiceImpl) GetAuditEntry(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error) {
	entry, err := s.auditRepo.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, audit.ErrEntryNotFound{}) {
			s.logger.Info("Audit entry not found", "event_id", eventID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get audit entry", "event_id", eventID.String(), "error", err)
		return nil, err
	}
	return entry, nil
}

func (s *AuditServiceImpl) GetAuditByTimeRange(ctx context.Context, from, to time.Time, page, perPage int) ([]*audit.Entry, error) {
	return s.auditRepo.GetByTimeRange(ctx, from, to, perPage, (page-1)*perPage)
}
