// Package contract holds the Contract aggregate: its append-only amount ledger, the payment
// request state machine and the figures derived from both. Nothing in this package performs
// I/O; persistence and serialization of commands live in the data and engine packages.
package contract

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAmount bounds every contract amount and payment amount, in minor units. Sums of amounts
// below it cannot overflow int64.
const MaxAmount int64 = 1_000_000_000_000_000

// ProgressStatus summarises how much of the contract has been paid out
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NotStarted"
	ProgressInProgress ProgressStatus = "InProgress"
	ProgressCompleted  ProgressStatus = "Completed"
)

// Contract is the root aggregate. Changes, Payments and every payment's Logs are kept in
// insertion order; the cached progress fields are rewritten by refresh after each command.
type Contract struct {
	ID             uuid.UUID         `json:"id"`
	Code           string            `json:"code"`
	OrderNo        string            `json:"order_no"`
	ProjectNo      string            `json:"project_no"`
	ProjectName    string            `json:"project_name"`
	Client         string            `json:"client"`
	Members        []string          `json:"members"`
	ContractAmount int64             `json:"contract_amount"` // Stored in minor units
	Changes        []ChangeRecord    `json:"changes"`
	Payments       []*PaymentRequest `json:"payments"`

	CompletionRate  int64          `json:"completion_rate"`
	CompletedAmount int64          `json:"completed_amount"`
	PendingAmount   int64          `json:"pending_amount"`
	TotalRequested  int64          `json:"total_requested"`
	Status          ProgressStatus `json:"status"`
	OverCommitted   bool           `json:"over_committed"`

	CreatedBy    string    `json:"created_by"`
	Version      int       `json:"version"` // For optimistic locking
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// NewContract builds the initial aggregate with an empty ledger and no payments.
// The code is assigned by the repository at commit time.
func NewContract(orderNo, projectNo, projectName, client string, amount int64, members []string, actor string, now time.Time) (*Contract, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > MaxAmount {
		return nil, ErrAmountOutOfRange
	}
	if strings.TrimSpace(actor) == "" {
		return nil, ErrMissingActor
	}

	c := &Contract{
		ID:             uuid.New(),
		OrderNo:        strings.TrimSpace(orderNo),
		ProjectNo:      strings.TrimSpace(projectNo),
		ProjectName:    strings.TrimSpace(projectName),
		Client:         strings.TrimSpace(client),
		Members:        append([]string(nil), members...),
		ContractAmount: amount,
		Changes:        []ChangeRecord{},
		Payments:       []*PaymentRequest{},
		CreatedBy:      actor,
		Version:        1,
		CreatedAt:      now,
		LastModified:   now,
	}
	c.refresh()
	return c, nil
}

// Payment returns the payment request for round, or ErrPaymentNotFound
func (c *Contract) Payment(round int) (*PaymentRequest, error) {
	for _, p := range c.Payments {
		if p.Round == round {
			return p, nil
		}
	}
	return nil, ErrPaymentNotFound{Round: round}
}

// ActiveRequested is the sum of all non-rejected payment amounts, the figure bounded by
// ContractAmount.
func (c *Contract) ActiveRequested() int64 {
	var total int64
	for _, p := range c.Payments {
		if p.Status != StatusRejected {
			total = addAmounts(total, p.Amount)
		}
	}
	return total
}

// addAmounts sums two non-negative amounts, saturating at math.MaxInt64
func addAmounts(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// Refresh recomputes the cached progress fields. It reports whether anything changed and
// bumps the version when it did.
func (c *Contract) Refresh(now time.Time) bool {
	before := c.snapshot()
	c.refresh()
	if before == c.snapshot() {
		return false
	}
	c.touch(now)
	return true
}

type cachedFields struct {
	rate, completed, pending, requested int64
	status                              ProgressStatus
	over                                bool
}

func (c *Contract) snapshot() cachedFields {
	return cachedFields{c.CompletionRate, c.CompletedAmount, c.PendingAmount, c.TotalRequested, c.Status, c.OverCommitted}
}

func (c *Contract) refresh() {
	p := ProgressSummary(c)
	c.CompletionRate = p.CompletionRate
	c.CompletedAmount = p.CompletedAmount
	c.PendingAmount = p.PendingAmount
	c.TotalRequested = p.TotalRequested
	c.Status = p.Status
	c.OverCommitted = c.ActiveRequested() > c.ContractAmount
}

func (c *Contract) touch(now time.Time) {
	c.LastModified = now
	c.Version++
}
