package handler

import (
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/shopspring/decimal"
)

// CreateContractRequest represents a request to open a new contract. Field rules are checked
// by the contract validator so every violation is reported at once.
type CreateContractRequest struct {
	OrderNo        string   `json:"order_no"`
	ProjectNo      string   `json:"project_no"`
	ProjectName    string   `json:"project_name"`
	Client         string   `json:"client"`
	ContractAmount int64    `json:"contract_amount"`
	Members        []string `json:"members"`
}

// CreateContractResponse carries the identity assigned to a new contract
type CreateContractResponse struct {
	ContractID   string `json:"contract_id"`
	ContractCode string `json:"contract_code"`
	Version      int    `json:"version"`
}

// ValidateContractRequest asks for a dry-run validation of contract data
type ValidateContractRequest struct {
	Mode     string              `json:"mode" binding:"omitempty,oneof=create update"`
	Contract engine.ContractData `json:"contract"`
}

// AddChangeRequest represents an Increase or Decrease of the contract amount
type AddChangeRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Amount int64  `json:"amount" binding:"lte=1000000000000000"`
	Note   string `json:"note"`
}

// CreatePaymentRequest opens a new payment round. Percent accepts a JSON number or string.
type CreatePaymentRequest struct {
	Amount  int64           `json:"amount" binding:"lte=1000000000000000"`
	Percent decimal.Decimal `json:"percent"`
	Note    string          `json:"note"`
}

// ExecuteActionRequest drives one payment round through the workflow
type ExecuteActionRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

// RecalculationRequestBody queues a recalculation for one contract or for all of them
type RecalculationRequestBody struct {
	ContractID string `json:"contract_id" binding:"omitempty,uuid"`
	All        bool   `json:"all"`
}

// StatusPercentResponse is the share of the contract amount held by payments in one status
type StatusPercentResponse struct {
	Status  string `json:"status"`
	Percent int64  `json:"percent"`
}

// EventLogResponse is the merged, chronological change and payment history
type EventLogResponse struct {
	Events []string `json:"events"`
}

// BatchProgressResponse summarises a recalculation of every contract
type BatchProgressResponse struct {
	Results   []engine.ProgressResult `json:"results"`
	Total     int                     `json:"total"`
	Failed    int                     `json:"failed"`
	Succeeded int                     `json:"succeeded"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// TimeRangeParams bounds an audit query; both ends are RFC 3339 timestamps
type TimeRangeParams struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
	PaginationParams
}
