package service

import (
	"context"
	"encoding/json"
	"fmt"

	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	outboxDomain "github.com/sakashimaa/storefront/pkg/outbox/domain"
	"github.com/sakashimaa/storefront/pkg/outbox/repository"
)

// OutboxPublisher stores checkout events in postgres; the outbox worker relays them.
type OutboxPublisher struct {
	db    repository.Execer
	repo  repository.Repository
	topic string
}

func NewOutboxPublisher(db repository.Execer, repo repository.Repository, topic string) *OutboxPublisher {
	return &OutboxPublisher{
		db:    db,
		repo:  repo,
		topic: topic,
	}
}

func (p *OutboxPublisher) PublishCartCheckedOut(ctx context.Context, event *generalDomain.CartCheckedOutEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", generalDomain.EventCartCheckedOut, err)
	}

	wrapped, err := json.Marshal(generalDomain.EventWrapper{
		Event:   generalDomain.EventCartCheckedOut,
		Payload: payload,
	})
	if err != nil {
		return err
	}

	key := event.UserID
	if key == "" {
		key = event.SessionID
	}

	return p.repo.SaveOutboxEvent(ctx, p.db, &outboxDomain.OutboxEvent{
		AggregateID: event.OrderID,
		EventType:   generalDomain.EventCartCheckedOut,
		Topic:       p.topic,
		Key:         key,
		Payload:     wrapped,
	})
}
