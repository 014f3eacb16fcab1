package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types written to the outbox.
const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderPaymentFailed = "order.payment_failed"
	EventMemberRegistered   = "member.registered"
)

// OutboxEvent is a domain event stored alongside the state change that
// produced it and relayed to the broker afterwards.
type OutboxEvent struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AggregateType string          `json:"aggregateType" db:"aggregate_type"`
	AggregateID   string          `json:"aggregateId" db:"aggregate_id"`
	EventType     string          `json:"eventType" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	SentAt        *time.Time      `json:"sentAt,omitempty" db:"sent_at"`
}
