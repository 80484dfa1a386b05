package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published after a checkout is durably recorded. It feeds
// the analytics worker; publishing is best-effort.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	PlacedAt    time.Time       `json:"placed_at"`
}

// OrderStatusChangedEvent is published when an operator transitions an order.
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        FulfillmentStatus `json:"from"`
	To          FulfillmentStatus `json:"to"`
}
