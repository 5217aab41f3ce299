// Package engine is the command facade over the contract aggregate. Every mutating command
// loads the contract under a row lock, applies the domain rule, writes it back with a version
// check and records an outbox event, all inside one Postgres transaction.
package engine

import (
	"context"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ContractService exposes the contract commands and the read-side queries over a single contract
type ContractService interface {
	CreateContract(ctx context.Context, cmd CreateContractCommand) (*CreateContractResult, error)
	AddContractChange(ctx context.Context, cmd AddChangeCommand) (*AddChangeResult, error)
	CreatePaymentRequest(ctx context.Context, cmd CreatePaymentCommand) (*CreatePaymentResult, error)
	ExecutePaymentAction(ctx context.Context, cmd ExecuteActionCommand) (*ExecuteActionResult, error)

	GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
	ListContracts(ctx context.Context, page, perPage int) (*ContractPage, error)
	GetEventLog(ctx context.Context, id uuid.UUID) ([]string, error)
	GetStatusPercent(ctx context.Context, id uuid.UUID, status string) (int64, error)
}

// ProgressService recalculates the cached progress fields of one or all contracts
type ProgressService interface {
	CalculateContractProgress(ctx context.Context, cmd RecalculateCommand) (*ProgressResult, error)
	CalculateAllContractsProgress(ctx context.Context, requestedBy, correlationID string) ([]ProgressResult, error)
}

// ContractValidator checks contract data before it is created or edited
type ContractValidator interface {
	ValidateContract(ctx context.Context, data ContractData, mode ValidationMode) (*ValidationResult, error)
}

// OutboxRecorder stores the event of a committed command in the same transaction as the write
type OutboxRecorder interface {
	Record(ctx context.Context, tx pgx.Tx, entry *audit.Entry) error
}
