package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"
)

type WorkerPoolConfig struct {
	Size int
}

// ProgressServiceImpl recalculates cached progress fields. Batch runs fan out over an ants
// pool; each contract gets its own transaction so one failure never aborts the others.
type ProgressServiceImpl struct {
	txExecutor   persistence.TxExecutor
	contractRepo contract.Repository
	recorder     OutboxRecorder
	pool         *ants.Pool
	now          func() time.Time
	logger       *slog.Logger
}

func NewProgressService(
	txExecutor persistence.TxExecutor,
	contractRepo contract.Repository,
	recorder OutboxRecorder,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*ProgressServiceImpl, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &ProgressServiceImpl{
		txExecutor:   txExecutor,
		contractRepo: contractRepo,
		recorder:     recorder,
		pool:         pool,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}, nil
}

// CalculateContractProgress recomputes the cached fields of one contract. The contract is
// written, and an event recorded, only when a cached field actually changed.
func (s *ProgressServiceImpl) CalculateContractProgress(ctx context.Context, cmd RecalculateCommand) (*ProgressResult, error) {
	logger := s.logger
	if cmd.CorrelationID != "" {
		logger = s.logger.With("correlation_id", cmd.CorrelationID)
	}

	result := &ProgressResult{ContractID: cmd.ContractID}
	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.contractRepo.WithTx(tx)
		c, err := repo.LockForUpdate(ctx, cmd.ContractID)
		if err != nil {
			return err
		}

		progress := contract.ProgressSummary(c)
		result.ContractCode = c.Code
		result.Progress = &progress
		result.Changed = c.Refresh(s.now())
		result.Version = c.Version
		if !result.Changed {
			return nil
		}

		if err := repo.Update(ctx, c); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, &audit.Entry{
			EventID:       uuid.New(),
			ContractID:    c.ID,
			ContractCode:  c.Code,
			Type:          shared.EventProgressRecalculated,
			Actor:         cmd.RequestedBy,
			CorrelationID: cmd.CorrelationID,
			Version:       c.Version,
			Summary:       fmt.Sprintf("progress recalculated: %d%% %s", progress.CompletionRate, progress.Status),
			Details: map[string]any{
				"completion_rate":  progress.CompletionRate,
				"completed_amount": progress.CompletedAmount,
				"pending_amount":   progress.PendingAmount,
				"total_requested":  progress.TotalRequested,
				"status":           string(progress.Status),
			},
			OccurredAt: c.LastModified,
		})
	})
	if err != nil {
		if contract.KindOf(err) == contract.KindInternal {
			logger.Error("Failed to recalculate contract progress", "contract_id", cmd.ContractID.String(), "error", err)
		} else {
			logger.Warn("Contract progress not recalculated", "contract_id", cmd.ContractID.String(), "error", err)
		}
		return nil, err
	}

	logger.Info("Contract progress calculated",
		"contract_id", cmd.ContractID.String(),
		"completion_rate", result.Progress.CompletionRate,
		"changed", result.Changed,
	)
	return result, nil
}

// CalculateAllContractsProgress recalculates every contract. The returned error is only set
// when the contract list itself cannot be read; per-contract failures are reported in their
// result, in the same order as the IDs were listed.
func (s *ProgressServiceImpl) CalculateAllContractsProgress(ctx context.Context, requestedBy, correlationID string) ([]ProgressResult, error) {
	logger := s.logger
	if correlationID != "" {
		logger = s.logger.With("correlation_id", correlationID)
	}

	ids, err := s.contractRepo.ListIDs(ctx)
	if err != nil {
		logger.Error("Failed to list contracts for recalculation", "error", err)
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	results := make([]ProgressResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.calculateOne(ctx, id, requestedBy, correlationID)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit recalculation to worker pool", "contract_id", id.String(), "error", err)
			results[i] = failedResult(id, fmt.Errorf("failed to schedule recalculation: %w", err))
		}
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("Batch recalculation finished", "contracts", len(ids), "failed", failed)
	return results, nil
}

func (s *ProgressServiceImpl) calculateOne(ctx context.Context, id uuid.UUID, requestedBy, correlationID string) ProgressResult {
	if err := ctx.Err(); err != nil {
		return failedResult(id, err)
	}
	r, err := s.CalculateContractProgress(ctx, RecalculateCommand{
		ContractID:    id,
		RequestedBy:   requestedBy,
		CorrelationID: correlationID,
	})
	if err != nil {
		return failedResult(id, err)
	}
	return *r
}

func failedResult(id uuid.UUID, err error) ProgressResult {
	return ProgressResult{
		ContractID:   id,
		Err:          err,
		ErrorKind:    contract.KindOf(err),
		ErrorMessage: err.Error(),
	}
}

// Shutdown releases the worker pool
func (s *ProgressServiceImpl) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *ProgressServiceImpl) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *ProgressServiceImpl) Capacity() int {
	return s.pool.Cap()
}
