package domain

import "time"

// Event types
const (
	EventTypeDepositCompleted    = "movement.deposit"
	EventTypeWithdrawalCompleted = "movement.withdrawal"
	EventTypeTransferCompleted   = "movement.transfer"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
