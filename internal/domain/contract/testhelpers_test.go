package contract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixedClock returns a policy whose clock advances one second per call
func fixedClock(start time.Time) Policy {
	p := DefaultPolicy()
	now := start
	p.Now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return p
}

func newTestContract(t *testing.T, amount int64) *Contract {
	t.Helper()
	c, err := NewContract("ORD-1", "PRJ-1", "Bridge", "ACME", amount, []string{"alice", "bob"}, "alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	c.Code = "C001"
	return c
}

func pct(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
