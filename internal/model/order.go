package model

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to next.
// Delivered and cancelled orders are terminal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderConfirmed || next == OrderCancelled
	case OrderConfirmed:
		return next == OrderDelivered || next == OrderCancelled
	}
	return false
}

// FlavorSelection describes which flavors go into a box. When SurpriseMe
// is set the flavors were picked by the shop.
type FlavorSelection struct {
	Flavors         []string `json:"flavors"`
	ExcludedFlavors []string `json:"excluded_flavors"`
	SurpriseMe      bool     `json:"surprise_me"`
}

// Order is one placed box order. Orders are immutable after creation
// except for Status and the timestamps that accompany it.
//
// Fields:
//  ID            – opaque storage key (UUID).
//  OrderNumber   – short display identifier shown to the shopper.
//  DateKey       – capacity date the order consumed units from.
//  BoxSize       – pieces in the box; equals the units consumed.
//  Status        – lifecycle state; cancelled restores capacity.
//  CustomerPhone – weak reference into the customer directory.
type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	DateKey       string          `json:"date_key"`
	BoxSize       int             `json:"box_size"`
	Status        OrderStatus     `json:"status"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerName  string          `json:"customer_name"`
	Address       string          `json:"address,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	City          string          `json:"city"`
	DeliveryHours int             `json:"delivery_hours"`
	BoxPrice      int             `json:"box_price"`
	DeliveryPrice int             `json:"delivery_price"`
	TotalPrice    int             `json:"total_price"`
	Flavors       FlavorSelection `json:"flavors"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
}
