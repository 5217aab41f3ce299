package service

import (
	"context"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditService reads the audit projection written by the outbox poller
type AuditService interface {
	// GetAuditTrail retrieves a page of a contract's audit entries in the order they happened
	// Returns entries, total count of entries for the contract, and any error
	GetAuditTrail(ctx context.Context, contractID uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error)

	// GetAuditEntry retrieves one entry by its event ID
	// Returns nil if the entry is not found
	GetAuditEntry(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error)

	// GetAuditByTimeRange retrieves a page of entries across all contracts, newest first
	GetAuditByTimeRange(ctx context.Context, from, to time.Time, page, perPage int) ([]*audit.Entry, error)
}

// RecalculationService hands recalculation jobs to the contract processor
type RecalculationService interface {
	// RequestRecalculation publishes the request; it returns once the broker accepted it
	RequestRecalculation(ctx context.Context, request *shared.RecalculationRequest) error
}
