package domain

import (
	"encoding/json"
	"time"
)

const (
	EventUserLoggedOut  = "UserLoggedOut"
	EventCartCheckedOut = "CartCheckedOut"
)

// EventWrapper is the envelope every message on the user and cart topics uses.
type EventWrapper struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type UserLoggedOutEvent struct {
	UserID      string    `json:"user_id"`
	LoggedOutAt time.Time `json:"logged_out_at"`
}

type CartCheckedOutEvent struct {
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id,omitempty"`
	SessionID    string    `json:"session_id"`
	Total        float64   `json:"total"`
	ItemCount    int       `json:"item_count"`
	CheckedOutAt time.Time `json:"checked_out_at"`
}
