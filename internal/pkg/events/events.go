// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	OrderCreated   = "order.created"
	OrderPaid      = "order.paid"
	OrderShipped   = "order.shipped"
	OrderDelivered = "order.delivered"
	OrderDeleted   = "order.deleted"
)

// Event is the JSON envelope sent to subscribers. Name doubles as the
// routing key.
type Event struct {
	Name       string         `json:"name"`
	OrderID    uint           `json:"order_id"`
	UserID     uint           `json:"user_id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (e Event) Encode() ([]byte, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoop returns a publisher that drops every event.
func NewNoop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }
