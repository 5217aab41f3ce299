package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		err  error
		kind ErrorKind
		code string
	}{
		{ErrInvalidAmount, KindValidation, "INVALID_AMOUNT"},
		{fmt.Errorf("%w: detail", ErrPercentMismatch), KindValidation, "PERCENT_MISMATCH"},
		{ErrDecreaseExceedsBalance, KindInvariantViolation, "DECREASE_EXCEEDS_BALANCE"},
		{ErrIllegalTransition{Round: 1, Status: StatusCompleted, Action: ActionAdvance}, KindIllegalTransition, "ILLEGAL_TRANSITION"},
		{fmt.Errorf("wrapped: %w", ErrContractNotFound{ContractID: id}), KindNotFound, "CONTRACT_NOT_FOUND"},
		{ErrPaymentNotFound{Round: 2}, KindNotFound, "PAYMENT_NOT_FOUND"},
		{ErrConcurrentModification{ContractID: id}, KindConcurrencyConflict, "CONCURRENCY_CONFLICT"},
		{ErrUnauthorized{ActorID: "eve"}, KindUnauthorized, "UNAUTHORIZED"},
		{ValidationErrors{Fields: []string{"client is required"}}, KindValidation, "INVALID_CONTRACT"},
		{errors.New("boom"), KindInternal, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.code, CodeOf(tt.err))
		})
	}
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestErrIllegalTransition_Message(t *testing.T) {
	err := ErrIllegalTransition{Round: 1, Status: StatusCompleted, Action: ActionAdvance}
	assert.Equal(t, "current status Completed does not allow action Advance", err.Error())
}

func TestErrContractNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("load: %w", ErrContractNotFound{ContractID: id})
	assert.ErrorIs(t, err, ErrContractNotFound{})
	assert.ErrorIs(t, err, ErrContractNotFound{ContractID: id})
	assert.NotErrorIs(t, err, ErrContractNotFound{ContractID: uuid.New()})
}
