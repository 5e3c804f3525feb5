// Package repository defines the persistence boundary of the order
// service and its error values. The sentinels below allow higher layers
// such as the reservation service and the HTTP handlers to distinguish
// between failure scenarios. ErrConflict signals a transient write
// conflict that the caller may retry, while ErrInsufficientCapacity is a
// business rule violation the shopper has to correct.
package repository

import "errors"

// ErrNotFound is returned when a requested order, customer or capacity
// record does not exist. Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a transaction lost a race: the record it
// read was modified before commit, or the database reported a deadlock
// or lock wait timeout. The whole transaction body may be retried.
var ErrConflict = errors.New("conflict")

// ErrInsufficientCapacity is returned when a reservation would push the
// remaining capacity of a date below zero.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrUnavailable wraps connectivity failures of the backing store.
var ErrUnavailable = errors.New("storage unavailable")
