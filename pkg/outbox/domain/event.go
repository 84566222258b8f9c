package domain

import (
	"encoding/json"
	"time"
)

type OutboxEvent struct {
	ID          int64           `db:"id"`
	AggregateID string          `db:"aggregate_id"`
	EventType   string          `db:"event_type"`
	Topic       string          `db:"topic"`
	Key         string          `db:"message_key"`
	Payload     json.RawMessage `db:"payload"`
	CreatedAt   time.Time       `db:"created_at"`
	PublishedAt *time.Time      `db:"published_at"`
	Attempts    int64           `db:"attempts"`
	LastError   *string         `db:"last_error"`
}
