package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/contract-payment-ledger/internal/config"
	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestContractEventProducer_Publish(t *testing.T) {
	ctx := context.Background()
	entry := &audit.Entry{
		EventID:      uuid.New(),
		ContractID:   uuid.New(),
		ContractCode: "C001",
		Type:         shared.EventContractCreated,
		Actor:        "alice",
		Version:      1,
		OccurredAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	key := entry.ContractID.String()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &ContractEventProducer{jsonProducer{logger: newTestLogger(), writer: mockWriter, topic: "contract_events"}}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != key {
				return false
			}
			var decoded audit.Entry
			if err := json.Unmarshal(msgs[0].Value, &decoded); err != nil {
				return false
			}
			return decoded.EventID == entry.EventID && decoded.ContractCode == "C001"
		})).Return(nil).Once()

		require.NoError(t, producer.Publish(ctx, key, entry))
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &ContractEventProducer{jsonProducer{logger: newTestLogger(), writer: mockWriter, topic: "contract_events"}}
		writerError := errors.New("kafka write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.Publish(ctx, key, entry)
		assert.ErrorIs(t, err, writerError)
		assert.Contains(t, err.Error(), "contract_events")
		mockWriter.AssertExpectations(t)
	})

	t.Run("UnencodableValue", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &ContractEventProducer{jsonProducer{logger: newTestLogger(), writer: mockWriter, topic: "contract_events"}}

		err := producer.Publish(ctx, key, make(chan int))
		assert.Error(t, err)
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})
}

func TestRecalculationRequestProducer_PublishAndClose(t *testing.T) {
	ctx := context.Background()
	mockWriter := new(MockKafkaWriter)
	producer := &RecalculationRequestProducer{jsonProducer{logger: newTestLogger(), writer: mockWriter, topic: "contract_recalculation_requests"}}

	req := shared.RecalculationRequest{All: true, RequestedBy: "ops", CorrelationID: "corr-1"}
	mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
		var decoded shared.RecalculationRequest
		return len(msgs) == 1 && json.Unmarshal(msgs[0].Value, &decoded) == nil && decoded.All && decoded.RequestedBy == "ops"
	})).Return(nil).Once()
	require.NoError(t, producer.Publish(ctx, "all", req))

	closeError := errors.New("kafka close error")
	mockWriter.On("Close").Return(closeError).Once()
	err := producer.Close()
	assert.ErrorIs(t, err, closeError)

	mockWriter.AssertExpectations(t)
}

func TestNewProducers_RequireTopic(t *testing.T) {
	ctx := context.Background()

	_, err := NewContractEventProducer(ctx, newTestLogger(), &config.KafkaConfig{Brokers: "localhost:9092"})
	assert.EqualError(t, err, "kafka events topic is not configured")

	_, err = NewRecalculationRequestProducer(ctx, newTestLogger(), &config.KafkaConfig{Brokers: "localhost:9092"})
	assert.EqualError(t, err, "kafka recalculation topic is not configured")

	dlq, err := NewDLQProducer(ctx, newTestLogger(), &config.KafkaConfig{Brokers: "localhost:9092"})
	assert.NoError(t, err)
	assert.Nil(t, dlq)
}
