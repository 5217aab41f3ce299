package contract

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Progress is the derived view of a contract's payment state
type Progress struct {
	CompletionRate        int64          `json:"completion_rate"`
	CompletedAmount       int64          `json:"completed_amount"`
	PendingAmount         int64          `json:"pending_amount"`
	TotalRequested        int64          `json:"total_requested"`
	PaymentCount          int            `json:"payment_count"`
	CompletedPaymentCount int            `json:"completed_payment_count"`
	Status                ProgressStatus `json:"status"`
}

// percentOf returns round(part/whole*100), half away from zero, or 0 when whole is not positive
func percentOf(part, whole int64) int64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).Round(0).IntPart()
}

// ProgressSummary derives completion figures from the stored payments. It never mutates c.
func ProgressSummary(c *Contract) Progress {
	var p Progress
	for _, pay := range c.Payments {
		p.PaymentCount++
		p.TotalRequested = addAmounts(p.TotalRequested, pay.Amount)
		if pay.Status == StatusCompleted {
			p.CompletedPaymentCount++
			p.CompletedAmount = addAmounts(p.CompletedAmount, pay.Amount)
		}
	}
	p.PendingAmount = p.TotalRequested - p.CompletedAmount

	rate := percentOf(p.CompletedAmount, c.ContractAmount)
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}
	p.CompletionRate = rate

	switch {
	case rate >= 100:
		p.Status = ProgressCompleted
	case rate == 0:
		p.Status = ProgressNotStarted
	default:
		p.Status = ProgressInProgress
	}
	return p
}

// StatusPercent is the share of the contract amount held by payments in status
func StatusPercent(c *Contract, status PaymentStatus) int64 {
	var sum int64
	for _, pay := range c.Payments {
		if pay.Status == status {
			sum = addAmounts(sum, pay.Amount)
		}
	}
	return percentOf(sum, c.ContractAmount)
}

type logLine struct {
	at   time.Time
	text string
}

// EventLog merges ledger changes and payment transitions into one chronological,
// human-readable log. Entries with equal timestamps keep ledger-then-payment order.
func EventLog(c *Contract) []string {
	lines := make([]logLine, 0, len(c.Changes))
	for _, r := range c.Changes {
		text := fmt.Sprintf("%s contract amount %s by %d (%d -> %d) by %s",
			stamp(r.Timestamp), verb(r.Kind), r.Amount, r.PreviousAmount, r.NewAmount, r.Actor)
		lines = append(lines, logLine{at: r.Timestamp, text: withNote(text, r.Note)})
	}
	for _, pay := range c.Payments {
		for _, l := range pay.Logs {
			var text string
			if l.Action == ActionCreate {
				text = fmt.Sprintf("%s payment #%d created as %s for %d (%s%%) by %s",
					stamp(l.Timestamp), pay.Round, l.ToStatus, pay.Amount, pay.Percent.String(), l.Actor)
			} else {
				text = fmt.Sprintf("%s payment #%d %s: %s -> %s by %s",
					stamp(l.Timestamp), pay.Round, l.Action, l.FromStatus, l.ToStatus, l.Actor)
			}
			lines = append(lines, logLine{at: l.Timestamp, text: withNote(text, l.Note)})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].at.Before(lines[j].at) })

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

func stamp(t time.Time) string {
	return "[" + t.UTC().Format(time.RFC3339) + "]"
}

func verb(k ChangeKind) string {
	if k == ChangeDecrease {
		return "decreased"
	}
	return "increased"
}

func withNote(text, note string) string {
	if note == "" {
		return text
	}
	return text + ": " + note
}
