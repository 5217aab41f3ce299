package contract

import "strings"

// PaymentStatus is a state of the payment request lifecycle
type PaymentStatus string

const (
	StatusDraft               PaymentStatus = "Draft"
	StatusPendingReview       PaymentStatus = "PendingReview"
	StatusPendingDisbursement PaymentStatus = "PendingDisbursement"
	StatusDisbursing          PaymentStatus = "Disbursing"
	StatusCompleted           PaymentStatus = "Completed"
	StatusRejected            PaymentStatus = "Rejected"
)

// Statuses lists every lifecycle state in workflow order
var Statuses = []PaymentStatus{
	StatusDraft,
	StatusPendingReview,
	StatusPendingDisbursement,
	StatusDisbursing,
	StatusCompleted,
	StatusRejected,
}

// Action drives a transition between payment statuses
type Action string

const (
	ActionSubmit   Action = "Submit"
	ActionWithdraw Action = "Withdraw"
	ActionAdvance  Action = "Advance"
	ActionDeny     Action = "Deny"
	ActionReapply  Action = "Reapply"

	// ActionCreate only appears in logs, as the first entry of every request
	ActionCreate Action = "Create"
)

// Actions lists every executable action
var Actions = []Action{ActionSubmit, ActionWithdraw, ActionAdvance, ActionDeny, ActionReapply}

var transitions = map[PaymentStatus]map[Action]PaymentStatus{
	StatusDraft: {
		ActionSubmit: StatusPendingReview,
	},
	StatusPendingReview: {
		ActionWithdraw: StatusDraft,
		ActionAdvance:  StatusPendingDisbursement,
		ActionDeny:     StatusRejected,
	},
	StatusPendingDisbursement: {
		ActionWithdraw: StatusDraft,
		ActionAdvance:  StatusDisbursing,
		ActionDeny:     StatusRejected,
	},
	StatusDisbursing: {
		ActionAdvance: StatusCompleted,
		ActionDeny:    StatusRejected,
	},
	StatusCompleted: {},
	StatusRejected: {
		ActionReapply: StatusDraft,
	},
}

// ParseAction matches an action name case-insensitively
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", ErrInvalidAction
}

// ParseStatus matches a status name case-insensitively
func ParseStatus(s string) (PaymentStatus, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// Next looks up the transition table
func Next(from PaymentStatus, action Action) (PaymentStatus, bool) {
	to, ok := transitions[from][action]
	return to, ok
}

// AllowedActions returns the actions available from status, in Actions order
func AllowedActions(from PaymentStatus) []Action {
	var out []Action
	for _, a := range Actions {
		if _, ok := transitions[from][a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// IsTerminal reports whether no action leaves status
func IsTerminal(status PaymentStatus) bool {
	return len(transitions[status]) == 0
}
