package shared

import (
	"time"

	"github.com/google/uuid"
)

// RecalculationRequest defines a Kafka message asking the processor to recompute progress.
// All takes precedence over ContractID.
type RecalculationRequest struct {
	ContractID    uuid.UUID `json:"contract_id,omitempty"`
	All           bool      `json:"all,omitempty"`
	RequestedBy   string    `json:"requested_by"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
