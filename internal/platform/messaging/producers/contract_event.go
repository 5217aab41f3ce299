package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contract-payment-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// ContractEventProducer publishes committed contract events. Writes are synchronous so the
// outbox poller only marks a message processed once every replica has it.
type ContractEventProducer struct {
	jsonProducer
}

func NewContractEventProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ContractEventProducer, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	if err := ensureTopic(logger, cfg, cfg.EventsTopic); err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.Hash{}, // Events of one contract stay ordered on one partition
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &ContractEventProducer{
		jsonProducer: jsonProducer{logger: logger, writer: writer, topic: cfg.EventsTopic},
	}, nil
}
