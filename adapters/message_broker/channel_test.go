package message_broker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlabs/moodchat/adapters/message_broker"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	ctx := context.Background()
	messages, err := broker.Subscribe(ctx, "chat.replies", "")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "chat.replies", "", []byte(`{"reply":"hi"}`)))

	select {
	case msg := <-messages:
		assert.Equal(t, "chat.replies", msg.Topic)
		assert.Equal(t, []byte(`{"reply":"hi"}`), msg.Payload)
		assert.False(t, msg.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("message never arrived")
	}
}

func TestPublishBeforeSubscribeIsBuffered(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	ctx := context.Background()
	require.NoError(t, broker.Publish(ctx, "chat.replies", "", []byte("early")))

	messages, err := broker.Subscribe(ctx, "chat.replies", "")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, []byte("early"), msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("buffered message never arrived")
	}
}

func TestRoutingKeysAreIsolated(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	ctx := context.Background()
	a, err := broker.Subscribe(ctx, "topic", "a")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "topic", "b", []byte("for-b")))

	select {
	case msg := <-a:
		t.Fatalf("subscriber for %q received %q", "a", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 2, broker.TopicCount())
}

func TestClosedBrokerRejectsOperations(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()

	require.NoError(t, broker.Close())
	assert.True(t, broker.IsClosed())

	ctx := context.Background()
	assert.Error(t, broker.Publish(ctx, "topic", "", []byte("x")))

	_, err := broker.Subscribe(ctx, "topic", "")
	assert.Error(t, err)

	// Close is idempotent
	require.NoError(t, broker.Close())
}
