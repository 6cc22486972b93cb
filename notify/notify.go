// Package notify publishes order lifecycle events for downstream
// consumers (email, dashboards). Publishing is best-effort: a failed
// notification never blocks or rolls back the transaction it follows.
package notify

import (
	"context"
	"time"
)

// OrderEvent describes an order lifecycle change.
type OrderEvent struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	OrderID    uint      `json:"order_id"`
	UserID     uint      `json:"user_id"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	KindOrderPlaced        = "order.placed"
	KindOrderStatusChanged = "order.status_changed"
)

// Notifier is the notification sender the order engine talks to.
type Notifier interface {
	OrderPlaced(ctx context.Context, ev OrderEvent) error
	OrderStatusChanged(ctx context.Context, ev OrderEvent) error
}

// Noop discards every event; used in tests and when no broker is
// configured.
type Noop struct{}

func (Noop) OrderPlaced(context.Context, OrderEvent) error        { return nil }
func (Noop) OrderStatusChanged(context.Context, OrderEvent) error { return nil }
