package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contract-payment-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// RecalculationRequestProducer queues progress recalculation requests for the processor
type RecalculationRequestProducer struct {
	jsonProducer
}

// NewRecalculationRequestProducer creates the producer and ensures the topic exists
func NewRecalculationRequestProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RecalculationRequestProducer, error) {
	if cfg.RecalculationTopic == "" {
		return nil, fmt.Errorf("kafka recalculation topic is not configured")
	}

	if err := ensureTopic(logger, cfg, cfg.RecalculationTopic); err != nil {
		return nil, fmt.Errorf("failed to ensure recalculation topic %s exists: %w", cfg.RecalculationTopic, err)
	}

	topic := cfg.RecalculationTopic
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", topic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", topic, "count", len(messages))
			}
		},
	}

	return &RecalculationRequestProducer{
		jsonProducer: jsonProducer{logger: logger, writer: writer, topic: topic},
	}, nil
}
