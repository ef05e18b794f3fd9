package events

import (
	"time"

	"github.com/google/uuid"
)

// Event represents the base event structure with common fields
type Event struct {
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewEvent creates a new base event with generated correlation ID
func NewEvent() Event {
	return Event{
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
	}
}

// NewEventWithCorrelation keeps an upstream correlation id, generating one
// when it is empty.
func NewEventWithCorrelation(correlationID string) Event {
	e := NewEvent()
	if correlationID != "" {
		e.CorrelationID = correlationID
	}
	return e
}

// MessageReceived is published for every free-text message from a user.
type MessageReceived struct {
	Event
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

const TopicMessageReceived = "message.received"
