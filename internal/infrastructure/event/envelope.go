package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event on the message broker
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EncodeEnvelope wraps the JSON form of the event with its metadata
func EncodeEnvelope(event shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return json.Marshal(Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt().UTC(),
		Payload:       payload,
	})
}

// DecodeEnvelope parses an envelope, leaving the payload raw
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if env.EventType == "" {
		return nil, fmt.Errorf("event envelope has no event_type")
	}
	return &env, nil
}
