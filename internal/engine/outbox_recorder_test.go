package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/outbox"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

func TestOutboxRecorder_Record(t *testing.T) {
	entry := &audit.Entry{
		EventID:       uuid.New(),
		ContractID:    uuid.New(),
		ContractCode:  "C001",
		Type:          shared.EventChangeApplied,
		Actor:         "alice",
		CorrelationID: "corr-1",
		Version:       2,
		Summary:       "contract amount increased by 10 to 110",
		OccurredAt:    time.Now().UTC(),
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		txRepo := new(MockOutboxRepository)
		repo.On("WithTx", nil).Return(txRepo)
		txRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *outbox.Message) bool {
			return m.EventID == entry.EventID &&
				m.ContractID == entry.ContractID &&
				m.EventType == shared.EventChangeApplied &&
				m.Status == shared.OutboxStatusPending
		})).Return(nil)

		err := NewOutboxRecorder(repo, newTestLogger()).Record(context.Background(), nil, entry)

		require.NoError(t, err)
		repo.AssertExpectations(t)
		txRepo.AssertExpectations(t)
	})

	t.Run("Create failure", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		txRepo := new(MockOutboxRepository)
		dbErr := errors.New("connection reset")
		repo.On("WithTx", nil).Return(txRepo)
		txRepo.On("Create", mock.Anything, mock.Anything).Return(dbErr)

		err := NewOutboxRecorder(repo, newTestLogger()).Record(context.Background(), nil, entry)

		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), entry.ContractID.String())
	})

	t.Run("Unmarshalable details", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		bad := *entry
		bad.Details = map[string]any{"ch": make(chan int)}

		err := NewOutboxRecorder(repo, newTestLogger()).Record(context.Background(), nil, &bad)

		assert.Error(t, err)
		repo.AssertNotCalled(t, "WithTx", mock.Anything)
	})
}
