package audit

import (
	"time"

	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Entry is the audit record of one committed contract command
type Entry struct {
	EventID       uuid.UUID        `json:"event_id" bson:"event_id"`
	ContractID    uuid.UUID        `json:"contract_id" bson:"contract_id"`
	ContractCode  string           `json:"contract_code" bson:"contract_code"`
	Type          shared.EventType `json:"type" bson:"type"`
	Actor         string           `json:"actor" bson:"actor"`
	CorrelationID string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Version       int              `json:"version" bson:"version"` // Contract version after the command
	Summary       string           `json:"summary" bson:"summary"`
	Details       map[string]any   `json:"details,omitempty" bson:"details,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at" bson:"occurred_at"`
	PublishedAt   *time.Time       `json:"published_at,omitempty" bson:"published_at,omitempty"`
}
