package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ContractServiceImpl struct {
	txExecutor   persistence.TxExecutor
	contractRepo contract.Repository
	recorder     OutboxRecorder
	validator    ContractValidator
	policy       contract.Policy
	codePrefix   string
	logger       *slog.Logger
}

func NewContractService(
	txExecutor persistence.TxExecutor,
	contractRepo contract.Repository,
	recorder OutboxRecorder,
	validator ContractValidator,
	policy contract.Policy,
	codePrefix string,
	logger *slog.Logger,
) *ContractServiceImpl {
	if policy.Now == nil {
		policy.Now = func() time.Time { return time.Now().UTC() }
	}
	return &ContractServiceImpl{
		txExecutor:   txExecutor,
		contractRepo: contractRepo,
		recorder:     recorder,
		validator:    validator,
		policy:       policy,
		codePrefix:   codePrefix,
		logger:       logger,
	}
}

// CreateContract validates the data, then inserts the contract and its creation event.
// The code is assigned by the repository inside the transaction.
func (s *ContractServiceImpl) CreateContract(ctx context.Context, cmd CreateContractCommand) (*CreateContractResult, error) {
	logger := s.requestLogger(cmd.CorrelationID)
	if err := authorize(cmd.Auth); err != nil {
		logger.Warn("Contract creation rejected", "actor", cmd.Auth.Actor.ID, "error", err)
		return nil, err
	}

	data := ContractData{
		OrderNo:        cmd.OrderNo,
		ProjectNo:      cmd.ProjectNo,
		ProjectName:    cmd.ProjectName,
		Client:         cmd.Client,
		ContractAmount: cmd.ContractAmount,
		Members:        cmd.Members,
	}
	validation, err := s.validator.ValidateContract(ctx, data, ModeCreate)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		logger.Warn("Contract data is invalid", "order_no", cmd.OrderNo, "errors", validation.Errors)
		return nil, contract.ValidationErrors{Fields: validation.Errors}
	}

	actor := cmd.Auth.Actor.ID
	c, err := contract.NewContract(cmd.OrderNo, cmd.ProjectNo, cmd.ProjectName, cmd.Client, cmd.ContractAmount, cmd.Members, actor, s.policy.Now())
	if err != nil {
		return nil, err
	}

	err = s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.contractRepo.WithTx(tx).Create(ctx, c, s.codePrefix); err != nil {
			return err
		}
		entry := s.newEntry(c, shared.EventContractCreated, actor, cmd.CorrelationID,
			fmt.Sprintf("contract %s created for %d", c.Code, c.ContractAmount),
			map[string]any{
				"order_no":        c.OrderNo,
				"project_no":      c.ProjectNo,
				"contract_amount": c.ContractAmount,
			})
		return s.recorder.Record(ctx, tx, entry)
	})
	if err != nil {
		s.logFailure(logger, "Failed to create contract", c.ID, err)
		return nil, err
	}

	logger.Info("Contract created", "contract_id", c.ID.String(), "code", c.Code)
	return &CreateContractResult{ContractID: c.ID, ContractCode: c.Code, Contract: c}, nil
}

// AddContractChange appends an Increase or Decrease to the ledger
func (s *ContractServiceImpl) AddContractChange(ctx context.Context, cmd AddChangeCommand) (*AddChangeResult, error) {
	logger := s.requestLogger(cmd.CorrelationID)
	kind, err := contract.ParseChangeKind(cmd.Kind)
	if err != nil {
		return nil, err
	}

	var record contract.ChangeRecord
	c, err := s.mutate(ctx, cmd.ContractID, cmd.Auth, cmd.CorrelationID, func(c *contract.Contract) (*audit.Entry, error) {
		var err error
		record, err = s.policy.ApplyChange(c, kind, cmd.Amount, cmd.Note, cmd.Auth.Actor.ID)
		if err != nil {
			return nil, err
		}
		return &audit.Entry{
			Type:    shared.EventChangeApplied,
			Summary: fmt.Sprintf("contract amount %s by %d to %d", strings.ToLower(string(kind))+"d", cmd.Amount, record.NewAmount),
			Details: map[string]any{
				"kind":            string(kind),
				"amount":          record.Amount,
				"previous_amount": record.PreviousAmount,
				"new_amount":      record.NewAmount,
				"over_committed":  c.OverCommitted,
			},
		}, nil
	})
	if err != nil {
		s.logFailure(logger, "Failed to apply contract change", cmd.ContractID, err)
		return nil, err
	}

	logger.Info("Contract change applied", "contract_id", c.ID.String(), "kind", kind, "new_amount", record.NewAmount)
	return &AddChangeResult{NewAmount: record.NewAmount, Change: record, Version: c.Version}, nil
}

// CreatePaymentRequest opens the next payment round in Draft
func (s *ContractServiceImpl) CreatePaymentRequest(ctx context.Context, cmd CreatePaymentCommand) (*CreatePaymentResult, error) {
	logger := s.requestLogger(cmd.CorrelationID)

	var payment *contract.PaymentRequest
	c, err := s.mutate(ctx, cmd.ContractID, cmd.Auth, cmd.CorrelationID, func(c *contract.Contract) (*audit.Entry, error) {
		var err error
		payment, err = s.policy.CreatePayment(c, cmd.Amount, cmd.Percent, cmd.Note, cmd.Auth.Actor.ID)
		if err != nil {
			return nil, err
		}
		return &audit.Entry{
			Type:    shared.EventPaymentCreated,
			Summary: fmt.Sprintf("payment #%d created for %d (%s%%)", payment.Round, payment.Amount, payment.Percent.String()),
			Details: map[string]any{
				"round":   payment.Round,
				"amount":  payment.Amount,
				"percent": payment.Percent.String(),
			},
		}, nil
	})
	if err != nil {
		s.logFailure(logger, "Failed to create payment request", cmd.ContractID, err)
		return nil, err
	}

	logger.Info("Payment request created", "contract_id", c.ID.String(), "round", payment.Round, "amount", payment.Amount)
	return &CreatePaymentResult{Payment: *payment, Version: c.Version}, nil
}

// ExecutePaymentAction applies a workflow action to one payment round
func (s *ContractServiceImpl) ExecutePaymentAction(ctx context.Context, cmd ExecuteActionCommand) (*ExecuteActionResult, error) {
	logger := s.requestLogger(cmd.CorrelationID)
	action, err := contract.ParseAction(cmd.Action)
	if err != nil {
		return nil, err
	}

	var log contract.TransitionLog
	c, err := s.mutate(ctx, cmd.ContractID, cmd.Auth, cmd.CorrelationID, func(c *contract.Contract) (*audit.Entry, error) {
		var err error
		log, err = s.policy.ExecutePayment(c, cmd.Round, action, cmd.Auth.Actor.ID, cmd.Note)
		if err != nil {
			return nil, err
		}
		return &audit.Entry{
			Type:    shared.EventPaymentTransitioned,
			Summary: fmt.Sprintf("payment #%d %s: %s -> %s", cmd.Round, action, log.FromStatus, log.ToStatus),
			Details: map[string]any{
				"round":       cmd.Round,
				"action":      string(action),
				"from_status": string(log.FromStatus),
				"to_status":   string(log.ToStatus),
			},
		}, nil
	})
	if err != nil {
		s.logFailure(logger, "Failed to execute payment action", cmd.ContractID, err)
		return nil, err
	}

	logger.Info("Payment action executed",
		"contract_id", c.ID.String(),
		"round", cmd.Round,
		"action", action,
		"status", log.ToStatus,
	)
	return &ExecuteActionResult{NewStatus: log.ToStatus, Log: log, Version: c.Version}, nil
}

func (s *ContractServiceImpl) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	return s.contractRepo.GetByID(ctx, id)
}

// ListContracts returns one page of contracts in creation order
func (s *ContractServiceImpl) ListContracts(ctx context.Context, page, perPage int) (*ContractPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	total, err := s.contractRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	contracts, err := s.contractRepo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return &ContractPage{Contracts: contracts, Total: total}, nil
}

func (s *ContractServiceImpl) GetEventLog(ctx context.Context, id uuid.UUID) ([]string, error) {
	c, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return contract.EventLog(c), nil
}

func (s *ContractServiceImpl) GetStatusPercent(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	st, ok := contract.ParseStatus(status)
	if !ok {
		return 0, fmt.Errorf("%w: %q", contract.ErrInvalidStatus, status)
	}
	c, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return contract.StatusPercent(c, st), nil
}

// mutate runs apply against the locked contract and persists the result. apply returns the
// event to record; identity fields of the entry are filled in here.
func (s *ContractServiceImpl) mutate(
	ctx context.Context,
	id uuid.UUID,
	auth shared.Authorization,
	correlationID string,
	apply func(c *contract.Contract) (*audit.Entry, error),
) (*contract.Contract, error) {
	if err := authorize(auth); err != nil {
		return nil, err
	}

	var updated *contract.Contract
	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.contractRepo.WithTx(tx)
		c, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}

		draft, err := apply(c)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, c); err != nil {
			return err
		}

		entry := s.newEntry(c, draft.Type, auth.Actor.ID, correlationID, draft.Summary, draft.Details)
		if err := s.recorder.Record(ctx, tx, entry); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ContractServiceImpl) newEntry(c *contract.Contract, eventType shared.EventType, actor, correlationID, summary string, details map[string]any) *audit.Entry {
	return &audit.Entry{
		EventID:       uuid.New(),
		ContractID:    c.ID,
		ContractCode:  c.Code,
		Type:          eventType,
		Actor:         actor,
		CorrelationID: correlationID,
		Version:       c.Version,
		Summary:       summary,
		Details:       details,
		OccurredAt:    c.LastModified,
	}
}

func (s *ContractServiceImpl) requestLogger(correlationID string) *slog.Logger {
	if correlationID == "" {
		return s.logger
	}
	return s.logger.With("correlation_id", correlationID)
}

// logFailure logs domain rejections at Warn and everything else at Error
func (s *ContractServiceImpl) logFailure(logger *slog.Logger, msg string, id uuid.UUID, err error) {
	kind := contract.KindOf(err)
	if kind == contract.KindInternal {
		logger.Error(msg, "contract_id", id.String(), "error", err)
		return
	}
	logger.Warn(msg, "contract_id", id.String(), "kind", kind, "error", err)
}

// authorize turns the verdict of the permission check into an error
func authorize(auth shared.Authorization) error {
	if !auth.Allowed {
		return contract.ErrUnauthorized{ActorID: auth.Actor.ID, Reason: auth.Reason}
	}
	if strings.TrimSpace(auth.Actor.ID) == "" {
		return contract.ErrMissingActor
	}
	return nil
}
