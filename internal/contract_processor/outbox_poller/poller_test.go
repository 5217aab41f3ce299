package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/contract-payment-ledger/internal/config"
	"github.com/contract-payment-ledger/internal/domain/outbox"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPoller(outboxRepo *MockOutboxRepo, publisher *MockEventPublisher) *Poller {
	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	return NewPoller(cfg, outboxRepo, publisher, newTestLogger())
}

func TestPoller_ProcessPending(t *testing.T) {
	t.Run("DeliversBatch", func(t *testing.T) {
		m1, m2 := newMessage(1, 0), newMessage(2, 0)
		outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
		outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{m1, m2}, nil)
		publisher.On("Publish", mock.Anything, m1).Return(nil)
		publisher.On("Publish", mock.Anything, m2).Return(nil)

		delivered, err := newTestPoller(outboxRepo, publisher).ProcessPending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, delivered)
		publisher.AssertExpectations(t)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
		outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

		delivered, err := newTestPoller(outboxRepo, publisher).ProcessPending(context.Background())

		require.NoError(t, err)
		assert.Zero(t, delivered)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("FetchFailure", func(t *testing.T) {
		outboxRepo := new(MockOutboxRepo)
		outboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db down"))

		_, err := newTestPoller(outboxRepo, new(MockEventPublisher)).ProcessPending(context.Background())

		assert.ErrorContains(t, err, "failed to get pending outbox messages")
	})

	t.Run("FailureCountsAttemptAndContinues", func(t *testing.T) {
		failing, ok := newMessage(3, 0), newMessage(4, 0)
		outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
		outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{failing, ok}, nil)
		publisher.On("Publish", mock.Anything, failing).Return(errors.New("broker down"))
		publisher.On("Publish", mock.Anything, ok).Return(nil)
		outboxRepo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil)

		delivered, err := newTestPoller(outboxRepo, publisher).ProcessPending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, delivered)
		outboxRepo.AssertExpectations(t)
		outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LastAttemptMarksFailed", func(t *testing.T) {
		msg := newMessage(5, 2)
		outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
		outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{msg}, nil)
		publisher.On("Publish", mock.Anything, msg).Return(errors.New("broker down"))
		outboxRepo.On("IncrementAttempts", mock.Anything, int64(5)).Return(nil)
		outboxRepo.On("UpdateStatus", mock.Anything, int64(5), shared.OutboxStatusFailedToPublish).Return(nil)

		_, err := newTestPoller(outboxRepo, publisher).ProcessPending(context.Background())

		require.NoError(t, err)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("IncrementFailureSkipsStatusUpdate", func(t *testing.T) {
		msg := newMessage(6, 2)
		outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
		outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{msg}, nil)
		publisher.On("Publish", mock.Anything, msg).Return(errors.New("broker down"))
		outboxRepo.On("IncrementAttempts", mock.Anything, int64(6)).Return(errors.New("db down"))

		_, err := newTestPoller(outboxRepo, publisher).ProcessPending(context.Background())

		require.NoError(t, err)
		outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StopsOnCancelledContext", func(t *testing.T) {
		outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
		outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{newMessage(7, 0)}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		delivered, err := newTestPoller(outboxRepo, publisher).ProcessPending(ctx)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, delivered)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestPoller_Start(t *testing.T) {
	outboxRepo, publisher := new(MockOutboxRepo), new(MockEventPublisher)
	polled := make(chan struct{}, 1)
	outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Run(func(mock.Arguments) {
		select {
		case polled <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestPoller(outboxRepo, publisher).Start(ctx)
		close(done)
	}()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("poller never polled")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}
