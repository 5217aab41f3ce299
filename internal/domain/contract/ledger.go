package contract

import (
	"strings"
	"time"
)

// ChangeKind is the direction of a contract amount change
type ChangeKind string

const (
	ChangeIncrease ChangeKind = "Increase"
	ChangeDecrease ChangeKind = "Decrease"
)

// ParseChangeKind accepts Increase or Decrease in any case
func ParseChangeKind(s string) (ChangeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increase":
		return ChangeIncrease, nil
	case "decrease":
		return ChangeDecrease, nil
	default:
		return "", ErrInvalidChangeKind
	}
}

// ChangeRecord is one immutable ledger entry
type ChangeRecord struct {
	Kind           ChangeKind `json:"kind"`
	Amount         int64      `json:"amount"`
	PreviousAmount int64      `json:"previous_amount"`
	NewAmount      int64      `json:"new_amount"`
	Note           string     `json:"note,omitempty"`
	Actor          string     `json:"actor"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Signed returns the entry's amount with its direction applied
func (r ChangeRecord) Signed() int64 {
	if r.Kind == ChangeDecrease {
		return -r.Amount
	}
	return r.Amount
}

// ApplyChange appends a ledger entry and moves ContractAmount to the new balance.
// On error the contract is left untouched.
func (p Policy) ApplyChange(c *Contract, kind ChangeKind, amount int64, note, actor string) (ChangeRecord, error) {
	if amount <= 0 {
		return ChangeRecord{}, ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ChangeRecord{}, ErrAmountOutOfRange
	}
	if strings.TrimSpace(actor) == "" {
		return ChangeRecord{}, ErrMissingActor
	}

	previous := c.ContractAmount
	var next int64
	switch kind {
	case ChangeIncrease:
		if previous > MaxAmount-amount {
			return ChangeRecord{}, ErrAmountOutOfRange
		}
		next = previous + amount
	case ChangeDecrease:
		if amount > previous {
			return ChangeRecord{}, ErrDecreaseExceedsBalance
		}
		next = previous - amount
		if p.Decrease != DecreaseFlag && next < c.ActiveRequested() {
			return ChangeRecord{}, ErrDecreaseBelowRequested
		}
	default:
		return ChangeRecord{}, ErrInvalidChangeKind
	}

	now := p.now()
	record := ChangeRecord{
		Kind:           kind,
		Amount:         amount,
		PreviousAmount: previous,
		NewAmount:      next,
		Note:           note,
		Actor:          actor,
		Timestamp:      now,
	}
	c.Changes = append(c.Changes, record)
	c.ContractAmount = next
	c.refresh()
	c.touch(now)
	return record, nil
}

// OriginalAmount folds the ledger back out of the current amount
func OriginalAmount(c *Contract) int64 {
	amount := c.ContractAmount
	for _, r := range c.Changes {
		amount -= r.Signed()
	}
	return amount
}
