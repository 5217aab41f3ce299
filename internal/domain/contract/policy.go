package contract

import (
	"fmt"
	"strings"
	"time"
)

// DecreasePolicy decides what happens when a Decrease would leave the contract amount below
// the sum of outstanding (non-rejected) payment requests.
type DecreasePolicy string

const (
	// DecreaseForbid rejects the change with ErrDecreaseBelowRequested
	DecreaseForbid DecreasePolicy = "forbid"
	// DecreaseFlag applies the change and marks the contract as over-committed
	DecreaseFlag DecreasePolicy = "flag"
)

// ParseDecreasePolicy accepts "forbid" or "flag", case-insensitively
func ParseDecreasePolicy(s string) (DecreasePolicy, error) {
	switch DecreasePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case DecreaseForbid:
		return DecreaseForbid, nil
	case DecreaseFlag:
		return DecreaseFlag, nil
	default:
		return "", fmt.Errorf("unknown decrease policy %q", s)
	}
}

// Policy carries the tunable rules applied by ledger and payment commands
type Policy struct {
	PercentTolerance int64
	Decrease         DecreasePolicy
	Now              func() time.Time
}

// DefaultPolicy uses a one point percent tolerance and forbids over-commitment
func DefaultPolicy() Policy {
	return Policy{
		PercentTolerance: 1,
		Decrease:         DecreaseForbid,
		Now:              func() time.Time { return time.Now().UTC() },
	}
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now()
}
