// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/hmweb77/macaroness/internal/model"
)

// OrderPlacedQueue is the durable queue order notifications travel on.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is published once an order has been committed. It
// carries everything the operator summary needs so the consumer never
// has to query the primary database.
type OrderPlacedEvent struct {
	OrderID           string   `json:"order_id"`
	OrderNumber       string   `json:"order_number"`
	DateKey           string   `json:"date_key"`
	BoxSize           int      `json:"box_size"`
	City              string   `json:"city"`
	DeliveryHours     int      `json:"delivery_hours"`
	CustomerName      string   `json:"customer_name"`
	CustomerPhone     string   `json:"customer_phone"`
	Address           string   `json:"address,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	Flavors           []string `json:"flavors"`
	ExcludedFlavors   []string `json:"excluded_flavors"`
	SurpriseMe        bool     `json:"surprise_me"`
	BoxPrice          int      `json:"box_price"`
	DeliveryPrice     int      `json:"delivery_price"`
	TotalPrice        int      `json:"total_price"`
	RemainingCapacity int      `json:"remaining_capacity"`
	PlacedAt          string   `json:"placed_at"`
}

// NewOrderPlacedEvent builds the event for a freshly committed order.
func NewOrderPlacedEvent(o model.Order, remaining int) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		DateKey:           o.DateKey,
		BoxSize:           o.BoxSize,
		City:              o.City,
		DeliveryHours:     o.DeliveryHours,
		CustomerName:      o.CustomerName,
		CustomerPhone:     o.CustomerPhone,
		Address:           o.Address,
		Notes:             o.Notes,
		Flavors:           o.Flavors.Flavors,
		ExcludedFlavors:   o.Flavors.ExcludedFlavors,
		SurpriseMe:        o.Flavors.SurpriseMe,
		BoxPrice:          o.BoxPrice,
		DeliveryPrice:     o.DeliveryPrice,
		TotalPrice:        o.TotalPrice,
		RemainingCapacity: remaining,
		PlacedAt:          o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
