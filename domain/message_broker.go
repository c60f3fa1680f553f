package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// SystemNotice is an operator-issued announcement fanned out to every
// connected websocket client.
type SystemNotice struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplyEvent is published after a reply has been generated so that
// every connected websocket client of the same user sees the
// transcript, regardless of which surface produced it.
type ReplyEvent struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         int       `json:"user_id"`
	Mood           Mood      `json:"mood"`
	Message        string    `json:"message"`
	Reply          string    `json:"reply"`
	Timestamp      time.Time `json:"timestamp"`
}
