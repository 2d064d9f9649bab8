package models

import "strings"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses
const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusCreated:    {OrderStatusProcessing: true, OrderStatusCanceled: true},
	OrderStatusProcessing: {OrderStatusDelivered: true, OrderStatusCanceled: true},
	OrderStatusDelivered:  {},
	OrderStatusCanceled:   {},
}

// ParseOrderStatus accepts a known status name, ignoring case and
// surrounding whitespace. "cancelled" is accepted as an alias.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "cancelled" {
		s = OrderStatusCanceled
	}
	if _, ok := orderTransitions[s]; !ok {
		return "", false
	}
	return s, true
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return orderTransitions[s][next]
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) String() string {
	return string(s)
}
