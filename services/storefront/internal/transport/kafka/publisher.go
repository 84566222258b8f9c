package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	"github.com/sakashimaa/storefront/pkg/kafka"
)

// Publisher emits cart events wrapped the same way every service on the bus does.
type Publisher struct {
	producer kafka.Producer
	topic    string
}

func NewPublisher(producer kafka.Producer, topic string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *Publisher) PublishCartCheckedOut(ctx context.Context, event *generalDomain.CartCheckedOutEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", generalDomain.EventCartCheckedOut, err)
	}

	wrapper := generalDomain.EventWrapper{
		Event:   generalDomain.EventCartCheckedOut,
		Payload: payload,
	}

	key := event.UserID
	if key == "" {
		key = event.SessionID
	}

	return p.producer.ProduceMessage(ctx, p.topic, key, wrapper)
}
