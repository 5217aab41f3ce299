package shared

// EventType names a committed contract command
type EventType string

const (
	EventContractCreated      EventType = "CONTRACT_CREATED"
	EventChangeApplied        EventType = "CONTRACT_CHANGE_APPLIED"
	EventPaymentCreated       EventType = "PAYMENT_REQUEST_CREATED"
	EventPaymentTransitioned  EventType = "PAYMENT_REQUEST_TRANSITIONED"
	EventProgressRecalculated EventType = "CONTRACT_PROGRESS_RECALCULATED"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
