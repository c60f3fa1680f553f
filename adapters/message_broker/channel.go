package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moodlabs/moodchat/domain"
	"github.com/moodlabs/moodchat/utils/log"
)

const topicBuffer = 100

// ChannelMessageBroker implements MessageBroker using Go channels.
// Good enough for a single-process deployment; swap the adapter for a
// real broker when the service is scaled out.
type ChannelMessageBroker struct {
	topics map[string]chan domain.Message
	mu     sync.Mutex
	closed bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.Message),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channelFor returns the channel for topic/routingKey, creating it on
// first use. Caller must hold mu.
func (b *ChannelMessageBroker) channelFor(topic, routingKey string) chan domain.Message {
	key := makeKey(topic, routingKey)
	channel, exists := b.topics[key]
	if !exists {
		channel = make(chan domain.Message, topicBuffer)
		b.topics[key] = channel
	}
	return channel
}

// Publish sends a message to a specific topic and routing key. It
// never blocks: when the topic buffer is full the message is dropped
// with an error instead of stalling the publisher.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("message broker is closed")
	}
	channel := b.channelFor(topic, routingKey)
	b.mu.Unlock()

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	select {
	case channel <- msg:
		log.WithCtx(ctx).Debug("📤 Message published to topic",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	channel := b.channelFor(topic, routingKey)

	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.With(zap.String("key", key)).Debug("🔒 Closed topic channel")
	}
	b.topics = make(map[string]chan domain.Message)

	log.With().Info("🔒 Message broker closed")
	return nil
}

// TopicCount returns the number of active topics (useful for monitoring)
func (b *ChannelMessageBroker) TopicCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
