package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest is one payment round of a contract
type PaymentRequest struct {
	Round       int             `json:"round"`
	Status      PaymentStatus   `json:"status"`
	Amount      int64           `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
	Note        string          `json:"note,omitempty"`
	RequestedBy string          `json:"requested_by"`
	RequestedAt time.Time       `json:"requested_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Logs        []TransitionLog `json:"logs"`
}

// TransitionLog records one executed transition, including the initial creation
type TransitionLog struct {
	Action     Action        `json:"action"`
	Actor      string        `json:"actor"`
	Timestamp  time.Time     `json:"timestamp"`
	FromStatus PaymentStatus `json:"from_status,omitempty"`
	ToStatus   PaymentStatus `json:"to_status"`
	Note       string        `json:"note,omitempty"`
}

// CreatePayment opens a new payment round in Draft.
// Rounds are assigned as len(Payments)+1, so callers must hold the contract exclusively
// between load and save.
func (p Policy) CreatePayment(c *Contract, amount int64, percent decimal.Decimal, note, actor string) (*PaymentRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(actor) == "" {
		return nil, ErrMissingActor
	}
	if amount > MaxAmount {
		return nil, ErrAmountOutOfRange
	}
	if amount > c.ContractAmount {
		return nil, ErrAmountExceedsContract
	}
	expected := percentOf(amount, c.ContractAmount)
	if decimal.NewFromInt(expected).Sub(percent).Abs().GreaterThan(decimal.NewFromInt(p.PercentTolerance)) {
		return nil, fmt.Errorf("%w: amount is %d%% of contract, got %s%%", ErrPercentMismatch, expected, percent.String())
	}
	if addAmounts(c.ActiveRequested(), amount) > c.ContractAmount {
		return nil, ErrTotalWouldExceedContract
	}

	now := p.now()
	payment := &PaymentRequest{
		Round:       len(c.Payments) + 1,
		Status:      StatusDraft,
		Amount:      amount,
		Percent:     percent,
		Note:        note,
		RequestedBy: actor,
		RequestedAt: now,
		UpdatedAt:   now,
		Logs: []TransitionLog{{
			Action:    ActionCreate,
			Actor:     actor,
			Timestamp: now,
			ToStatus:  StatusDraft,
			Note:      note,
		}},
	}
	c.Payments = append(c.Payments, payment)
	c.refresh()
	c.touch(now)
	return payment, nil
}

// ExecutePayment applies action to the payment of round and appends its log entry.
// On error neither the status nor the logs change.
func (p Policy) ExecutePayment(c *Contract, round int, action Action, actor, note string) (TransitionLog, error) {
	if strings.TrimSpace(actor) == "" {
		return TransitionLog{}, ErrMissingActor
	}
	payment, err := c.Payment(round)
	if err != nil {
		return TransitionLog{}, err
	}

	to, ok := Next(payment.Status, action)
	if !ok {
		return TransitionLog{}, ErrIllegalTransition{Round: round, Status: payment.Status, Action: action}
	}
	if payment.Status == StatusRejected && to != StatusRejected {
		// the amount counts toward the requested total again
		if addAmounts(c.ActiveRequested(), payment.Amount) > c.ContractAmount {
			return TransitionLog{}, ErrTotalWouldExceedContract
		}
	}

	now := p.now()
	entry := TransitionLog{
		Action:     action,
		Actor:      actor,
		Timestamp:  now,
		FromStatus: payment.Status,
		ToStatus:   to,
		Note:       note,
	}
	payment.Status = to
	payment.UpdatedAt = now
	payment.Logs = append(payment.Logs, entry)
	c.refresh()
	c.touch(now)
	return entry, nil
}
