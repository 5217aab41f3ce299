package engine

import (
	"log/slog"

	"github.com/contract-payment-ledger/internal/config"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/outbox"
	"github.com/contract-payment-ledger/internal/platform/persistence"
)

// Services bundles the engine facades shared by the gateway and the processor
type Services struct {
	Contracts *ContractServiceImpl
	Progress  *ProgressServiceImpl
	Validator ContractValidator
}

// CreateServices wires the engine with all its dependencies.
func CreateServices(
	txExecutor persistence.TxExecutor,
	contractRepo contract.Repository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) (*Services, error) {
	validator := NewContractValidator(contractRepo, logger.With("component", "contract_validator"))
	recorder := NewOutboxRecorder(outboxRepo, logger.With("component", "outbox_recorder"))

	contracts := NewContractService(
		txExecutor,
		contractRepo,
		recorder,
		validator,
		cfg.Workflow.Policy(),
		cfg.Workflow.CodePrefix,
		logger.With("component", "contract_service"),
	)

	progress, err := NewProgressService(
		txExecutor,
		contractRepo,
		recorder,
		WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "progress_service"),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Created contract engine",
		"code_prefix", cfg.Workflow.CodePrefix,
		"decrease_policy", cfg.Workflow.DecreasePolicy,
		"pool_size", cfg.WorkerPool.Size,
	)
	return &Services{Contracts: contracts, Progress: progress, Validator: validator}, nil
}
