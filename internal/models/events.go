package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderCanceled      = "ORDER_CANCELED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order is persisted and stock taken
type OrderPlacedEvent struct {
	BaseEvent
	OrderID  int64           `json:"order_id"`
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Total    int64           `json:"total"`
	Items    []OrderItemData `json:"items"`
}

// OrderCanceledEvent published when an order is canceled and stock returned
type OrderCanceledEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	Items   []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published on non-cancel status transitions
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID int64       `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	BookID    int64 `json:"book_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

// ItemsFromLines converts order lines to event payload items.
func ItemsFromLines(lines []OrderLine) []OrderItemData {
	items := make([]OrderItemData, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderItemData{
			BookID:    line.BookID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return items
}

// BookIDsFromItems returns the distinct book ids referenced by items.
func BookIDsFromItems(items []OrderItemData) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.BookID]; ok {
			continue
		}
		seen[item.BookID] = struct{}{}
		ids = append(ids, item.BookID)
	}
	return ids
}
