package model

import "time"

// Customer is a shopper profile keyed by normalized phone number. It is
// maintained as a side effect of order placement; concurrent updates
// are last-write-wins.
type Customer struct {
	Phone       string    `json:"phone"`         // customers.phone
	Name        string    `json:"name"`          // customers.name
	Address     string    `json:"address"`       // customers.address
	Notes       string    `json:"notes"`         // customers.notes, newline separated history
	OrderCount  int       `json:"order_count"`   // customers.order_count
	LastOrderAt time.Time `json:"last_order_at"` // customers.last_order_at
	CreatedAt   time.Time `json:"created_at"`    // customers.created_at
	UpdatedAt   time.Time `json:"updated_at"`    // customers.updated_at
}
