package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.message").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher is a fire-and-forget sink for events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

const (
	TypeChatMessage           = "chat.message"
	TypeChatPublicMessage     = "chat.public_message"
	TypeChatFailed            = "chat.failed"
	TypeUsageLimitReached     = "usage.limit_reached"
	TypeSubscriptionChanged   = "subscription.changed"
	TypeSubscriptionActivated = "subscription.activated"
	TypeChatbotCreated        = "chatbot.created"
	TypeChatbotDeleted        = "chatbot.deleted"
)

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
