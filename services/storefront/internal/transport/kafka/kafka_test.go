package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingTerminator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingTerminator) LogoutUser(_ context.Context, userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return 1
}

func wrap(t *testing.T, event string, payload any) []byte {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	data, err := json.Marshal(generalDomain.EventWrapper{Event: event, Payload: raw})
	require.NoError(t, err)
	return data
}

func TestConsumer_LogoutEventEndsSessions(t *testing.T) {
	sessions := &recordingTerminator{}
	c := NewConsumer(sessions, zap.NewNop())

	msg := &sarama.ConsumerMessage{
		Topic: "user_events",
		Value: wrap(t, generalDomain.EventUserLoggedOut, generalDomain.UserLoggedOutEvent{UserID: "42", LoggedOutAt: time.Now()}),
	}

	require.NoError(t, c.processMessage(context.Background(), msg))
	require.Equal(t, []string{"42"}, sessions.users)
}

func TestConsumer_IgnoresOtherAndBrokenMessages(t *testing.T) {
	sessions := &recordingTerminator{}
	c := NewConsumer(sessions, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.processMessage(ctx, &sarama.ConsumerMessage{Value: []byte("not json")}))
	require.NoError(t, c.processMessage(ctx, &sarama.ConsumerMessage{Value: wrap(t, "UserRegistered", map[string]any{"user_id": 1})}))
	require.NoError(t, c.processMessage(ctx, &sarama.ConsumerMessage{Value: wrap(t, generalDomain.EventUserLoggedOut, map[string]any{})}))

	require.Empty(t, sessions.users)
}

type recordingProducer struct {
	topic   string
	key     string
	message any
}

func (p *recordingProducer) ProduceMessage(_ context.Context, topic, key string, message interface{}) error {
	p.topic, p.key, p.message = topic, key, message
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func TestPublisher_WrapsCheckoutEvent(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewPublisher(producer, "cart_events")

	err := pub.PublishCartCheckedOut(context.Background(), &generalDomain.CartCheckedOutEvent{
		OrderID:   "ord-1",
		SessionID: "sess-1",
		Total:     54,
		ItemCount: 5,
	})
	require.NoError(t, err)

	require.Equal(t, "cart_events", producer.topic)
	require.Equal(t, "sess-1", producer.key, "anonymous checkouts are keyed by session")

	wrapper, ok := producer.message.(generalDomain.EventWrapper)
	require.True(t, ok)
	require.Equal(t, generalDomain.EventCartCheckedOut, wrapper.Event)

	var event generalDomain.CartCheckedOutEvent
	require.NoError(t, json.Unmarshal(wrapper.Payload, &event))
	require.Equal(t, "ord-1", event.OrderID)
	require.Equal(t, 5, event.ItemCount)
}
