package contract

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ErrorKind is the stable category of a failure returned by the engine.
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION"
	KindInvariantViolation  ErrorKind = "INVARIANT_VIOLATION"
	KindIllegalTransition   ErrorKind = "ILLEGAL_TRANSITION"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindInternal            ErrorKind = "INTERNAL"
)

// Error is a sentinel domain failure with a stable code
type Error struct {
	kind    ErrorKind
	Code    string
	Message string
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

// Kind returns the error category
func (e *Error) Kind() ErrorKind { return e.kind }

// Is matches any *Error carrying the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common errors
var (
	ErrInvalidAmount            = newError(KindValidation, "INVALID_AMOUNT", "amount must be positive")
	ErrAmountOutOfRange         = newError(KindValidation, "AMOUNT_OUT_OF_RANGE", "amount exceeds the supported maximum")
	ErrInvalidChangeKind        = newError(KindValidation, "INVALID_CHANGE_KIND", "change kind must be Increase or Decrease")
	ErrInvalidAction            = newError(KindValidation, "INVALID_ACTION", "unknown payment action")
	ErrInvalidStatus            = newError(KindValidation, "INVALID_STATUS", "unknown payment status")
	ErrPercentMismatch          = newError(KindValidation, "PERCENT_MISMATCH", "percent does not match amount relative to contract amount")
	ErrMissingActor             = newError(KindValidation, "MISSING_ACTOR", "actor is required")
	ErrInvalidContract          = newError(KindValidation, "INVALID_CONTRACT", "contract data is invalid")
	ErrDecreaseExceedsBalance   = newError(KindInvariantViolation, "DECREASE_EXCEEDS_BALANCE", "decrease exceeds current contract amount")
	ErrDecreaseBelowRequested   = newError(KindInvariantViolation, "DECREASE_BELOW_REQUESTED", "decrease would drop contract amount below requested payments")
	ErrAmountExceedsContract    = newError(KindInvariantViolation, "AMOUNT_EXCEEDS_CONTRACT", "payment amount exceeds contract amount")
	ErrTotalWouldExceedContract = newError(KindInvariantViolation, "TOTAL_WOULD_EXCEED_CONTRACT", "total requested would exceed contract amount")
)

// ErrIllegalTransition indicates the action is not defined for the current status
type ErrIllegalTransition struct {
	Round  int
	Status PaymentStatus
	Action Action
}

func (e ErrIllegalTransition) Error() string {
	return fmt.Sprintf("current status %s does not allow action %s", e.Status, e.Action)
}

func (e ErrIllegalTransition) Kind() ErrorKind { return KindIllegalTransition }

// ErrPaymentNotFound indicates a missing payment round
type ErrPaymentNotFound struct {
	Round int
}

func (e ErrPaymentNotFound) Error() string {
	return "payment request not found: round " + strconv.Itoa(e.Round)
}

func (e ErrPaymentNotFound) Kind() ErrorKind { return KindNotFound }

// ErrContractNotFound indicates missing contract
type ErrContractNotFound struct {
	ContractID uuid.UUID
}

func (e ErrContractNotFound) Error() string {
	return "contract not found: " + e.ContractID.String()
}

func (e ErrContractNotFound) Kind() ErrorKind { return KindNotFound }

// Is matches any ErrContractNotFound when the target carries no ID
func (e ErrContractNotFound) Is(target error) bool {
	t, ok := target.(ErrContractNotFound)
	if !ok {
		return false
	}
	if t.ContractID == uuid.Nil {
		return true
	}
	return e.ContractID == t.ContractID
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	ContractID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for contract: " + e.ContractID.String()
}

func (e ErrConcurrentModification) Kind() ErrorKind { return KindConcurrencyConflict }

// Is matches any ErrConcurrentModification when the target carries no ID
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	if t.ContractID == uuid.Nil {
		return true
	}
	return e.ContractID == t.ContractID
}

// ErrDuplicateCode indicates contract code uniqueness violation
type ErrDuplicateCode struct {
	Code string
}

func (e ErrDuplicateCode) Error() string {
	return "contract code already exists: " + e.Code
}

func (e ErrDuplicateCode) Kind() ErrorKind { return KindConcurrencyConflict }

// ErrUnauthorized carries a negative permission verdict from the caller
type ErrUnauthorized struct {
	ActorID string
	Reason  string
}

func (e ErrUnauthorized) Error() string {
	if e.Reason == "" {
		return "actor " + e.ActorID + " is not authorized"
	}
	return "actor " + e.ActorID + " is not authorized: " + e.Reason
}

func (e ErrUnauthorized) Kind() ErrorKind { return KindUnauthorized }

// ValidationErrors aggregates field level failures from contract validation
type ValidationErrors struct {
	Fields []string
}

func (e ValidationErrors) Error() string {
	msg := ErrInvalidContract.Message
	for i, f := range e.Fields {
		if i == 0 {
			msg += ": "
		} else {
			msg += "; "
		}
		msg += f
	}
	return msg
}

func (e ValidationErrors) Kind() ErrorKind { return KindValidation }

func (e ValidationErrors) Unwrap() error { return ErrInvalidContract }

// KindOf resolves the category of err, walking wrapped errors.
// Unknown errors are reported as KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// CodeOf returns the stable code of err, falling back to its kind
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	var it ErrIllegalTransition
	if errors.As(err, &it) {
		return "ILLEGAL_TRANSITION"
	}
	var pnf ErrPaymentNotFound
	if errors.As(err, &pnf) {
		return "PAYMENT_NOT_FOUND"
	}
	var cnf ErrContractNotFound
	if errors.As(err, &cnf) {
		return "CONTRACT_NOT_FOUND"
	}
	var dup ErrDuplicateCode
	if errors.As(err, &dup) {
		return "DUPLICATE_CODE"
	}
	return string(KindOf(err))
}
