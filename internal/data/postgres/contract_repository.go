// Package postgres provides PostgreSQL implementations of the domain repositories.
// Contracts are stored one row per aggregate with the ledger, payments and member list
// kept as JSONB columns, so every command reads and writes the whole document.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// codeLockKey serialises code assignment across all writers
	codeLockKey = "contracts.code"

	uniqueViolation = "23505"

	codeIndex    = "idx_contracts_code"
	orderNoIndex = "idx_contracts_order_no"

	contractColumns = `id, code, order_no, project_no, project_name, client, members, contract_amount,
		changes, payments, completion_rate, completed_amount, pending_amount, total_requested,
		status, over_committed, created_by, version, created_at, last_modified`
)

// ContractRepository implements the contract.Repository interface for PostgreSQL
type ContractRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewContractRepository creates a new PostgreSQL contract repository
func NewContractRepository(logger *slog.Logger, db *persistence.PostgresDB) contract.Repository {
	return &ContractRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx. Create and LockForUpdate only give their
// guarantees on a transaction-bound repository.
func (r *ContractRepository) WithTx(tx pgx.Tx) contract.Repository {
	return &ContractRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create takes the code advisory lock, reads every code with the prefix, assigns the next
// one and inserts the aggregate. Concurrent creators queue on the lock until the holder
// commits, so each of them sees the codes committed before it.
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract, codePrefix string) error {
	if err := persistence.AdvisoryXactLock(ctx, r.querier, codeLockKey); err != nil {
		r.logger.Error("Failed to lock contract codes", "error", err)
		return err
	}

	codes, err := r.codesWithPrefix(ctx, codePrefix)
	if err != nil {
		return err
	}
	c.Code = contract.GenerateNextCode(codePrefix, codes)

	members, changes, payments, err := marshalDocuments(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = r.querier.Exec(ctx, query,
		c.ID,
		c.Code,
		c.OrderNo,
		c.ProjectNo,
		c.ProjectName,
		c.Client,
		members,
		c.ContractAmount,
		changes,
		payments,
		c.CompletionRate,
		c.CompletedAmount,
		c.PendingAmount,
		c.TotalRequested,
		c.Status,
		c.OverCommitted,
		c.CreatedBy,
		c.Version,
		c.CreatedAt,
		c.LastModified,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case codeIndex:
				return contract.ErrDuplicateCode{Code: c.Code}
			case orderNoIndex:
				return contract.ValidationErrors{Fields: []string{"order_no: " + c.OrderNo + " already exists"}}
			}
		}
		r.logger.Error("Failed to create contract", "code", c.Code, "error", err)
		return fmt.Errorf("failed to create contract: %w", err)
	}

	return nil
}

func (r *ContractRepository) codesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.querier.Query(ctx, `SELECT code FROM contracts WHERE code LIKE $1`, prefix+"%")
	if err != nil {
		r.logger.Error("Failed to read contract codes", "prefix", prefix, "error", err)
		return nil, fmt.Errorf("failed to read contract codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan contract code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over contract codes: %w", err)
	}
	return codes, nil
}

// GetByID retrieves a contract by its ID
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`

	c, err := scanContract(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contract.ErrContractNotFound{ContractID: id}
		}
		r.logger.Error("Failed to get contract", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

// LockForUpdate obtains a row lock on the contract and returns its current state.
// Competing commands on the same contract wait here until the holder's transaction ends.
func (r *ContractRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1 FOR UPDATE`

	c, err := scanContract(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contract.ErrContractNotFound{ContractID: id}
		}
		r.logger.Error("Failed to lock contract for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock contract for update: %w", err)
	}
	return c, nil
}

// List returns contracts ordered by creation time, oldest first
func (r *ContractRepository) List(ctx context.Context, limit, offset int) ([]*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts ORDER BY created_at ASC, code ASC LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list contracts", "error", err)
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := make([]*contract.Contract, 0, limit)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			r.logger.Error("Failed to scan contract", "error", err)
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over contracts: %w", err)
	}
	return contracts, nil
}

// Count returns the number of stored contracts
func (r *ContractRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&count); err != nil {
		r.logger.Error("Failed to count contracts", "error", err)
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return count, nil
}

// ListIDs returns the IDs of all contracts in creation order
func (r *ContractRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.querier.Query(ctx, `SELECT id FROM contracts ORDER BY created_at ASC`)
	if err != nil {
		r.logger.Error("Failed to list contract IDs", "error", err)
		return nil, fmt.Errorf("failed to list contract IDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan contract ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over contract IDs: %w", err)
	}
	return ids, nil
}

// ExistsByOrderNo reports whether a contract already uses orderNo
func (r *ContractRepository) ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error) {
	var exists bool
	err := r.querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE order_no = $1)`, orderNo).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check order number", "order_no", orderNo, "error", err)
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

// Update writes the whole aggregate using optimistic locking.
// Returns ErrConcurrentModification if the stored version is not c.Version-1.
func (r *ContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	members, changes, payments, err := marshalDocuments(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE contracts
		SET project_no = $1, project_name = $2, client = $3, members = $4, contract_amount = $5,
			changes = $6, payments = $7, completion_rate = $8, completed_amount = $9,
			pending_amount = $10, total_requested = $11, status = $12, over_committed = $13,
			version = $14, last_modified = $15
		WHERE id = $16 AND version = $17
	`

	result, err := r.querier.Exec(ctx, query,
		c.ProjectNo,
		c.ProjectName,
		c.Client,
		members,
		c.ContractAmount,
		changes,
		payments,
		c.CompletionRate,
		c.CompletedAmount,
		c.PendingAmount,
		c.TotalRequested,
		c.Status,
		c.OverCommitted,
		c.Version,
		c.LastModified,
		c.ID,
		c.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update contract", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update contract: %w", err)
	}

	if result.RowsAffected() == 0 {
		return contract.ErrConcurrentModification{ContractID: c.ID}
	}

	return nil
}

func marshalDocuments(c *contract.Contract) (members, changes, payments []byte, err error) {
	if members, err = json.Marshal(nonNil(c.Members)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode contract members: %w", err)
	}
	if changes, err = json.Marshal(nonNil(c.Changes)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode contract changes: %w", err)
	}
	if payments, err = json.Marshal(nonNil(c.Payments)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode payment requests: %w", err)
	}
	return members, changes, payments, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var (
		c                          contract.Contract
		members, changes, payments []byte
	)
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.OrderNo,
		&c.ProjectNo,
		&c.ProjectName,
		&c.Client,
		&members,
		&c.ContractAmount,
		&changes,
		&payments,
		&c.CompletionRate,
		&c.CompletedAmount,
		&c.PendingAmount,
		&c.TotalRequested,
		&c.Status,
		&c.OverCommitted,
		&c.CreatedBy,
		&c.Version,
		&c.CreatedAt,
		&c.LastModified,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(members, &c.Members); err != nil {
		return nil, fmt.Errorf("failed to decode contract members: %w", err)
	}
	if err := json.Unmarshal(changes, &c.Changes); err != nil {
		return nil, fmt.Errorf("failed to decode contract changes: %w", err)
	}
	if err := json.Unmarshal(payments, &c.Payments); err != nil {
		return nil, fmt.Errorf("failed to decode payment requests: %w", err)
	}
	return &c, nil
}
