package engine

import (
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateContractCommand opens a new contract with an empty ledger and no payments
type CreateContractCommand struct {
	OrderNo        string
	ProjectNo      string
	ProjectName    string
	Client         string
	ContractAmount int64
	Members        []string
	Auth           shared.Authorization
	CorrelationID  string
}

type CreateContractResult struct {
	ContractID   uuid.UUID          `json:"contract_id"`
	ContractCode string             `json:"contract_code"`
	Contract     *contract.Contract `json:"contract"`
}

// AddChangeCommand appends an Increase or Decrease to the contract ledger
type AddChangeCommand struct {
	ContractID    uuid.UUID
	Kind          string
	Amount        int64
	Note          string
	Auth          shared.Authorization
	CorrelationID string
}

type AddChangeResult struct {
	NewAmount int64                 `json:"new_amount"`
	Change    contract.ChangeRecord `json:"change"`
	Version   int                   `json:"version"`
}

// CreatePaymentCommand opens the next payment round in Draft
type CreatePaymentCommand struct {
	ContractID    uuid.UUID
	Amount        int64
	Percent       decimal.Decimal
	Note          string
	Auth          shared.Authorization
	CorrelationID string
}

type CreatePaymentResult struct {
	Payment contract.PaymentRequest `json:"payment"`
	Version int                     `json:"version"`
}

// ExecuteActionCommand moves one payment round through the workflow
type ExecuteActionCommand struct {
	ContractID    uuid.UUID
	Round         int
	Action        string
	Note          string
	Auth          shared.Authorization
	CorrelationID string
}

type ExecuteActionResult struct {
	NewStatus contract.PaymentStatus `json:"new_status"`
	Log       contract.TransitionLog `json:"log"`
	Version   int                    `json:"version"`
}

type RecalculateCommand struct {
	ContractID    uuid.UUID
	RequestedBy   string
	CorrelationID string
}

// ProgressResult is the outcome for one contract. In a batch, Err is set instead of Progress
// when that contract failed.
type ProgressResult struct {
	ContractID   uuid.UUID          `json:"contract_id"`
	ContractCode string             `json:"contract_code,omitempty"`
	Progress     *contract.Progress `json:"progress,omitempty"`
	Changed      bool               `json:"changed"`
	Version      int                `json:"version,omitempty"`
	Err          error              `json:"-"`
	ErrorKind    contract.ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string             `json:"error,omitempty"`
}

type ContractPage struct {
	Contracts []*contract.Contract `json:"contracts"`
	Total     int64                `json:"total"`
}
