package service

import (
	"errors"
	"fmt"

	"github.com/hmweb77/macaroness/internal/repository"
)

// ErrRetriesExhausted is returned when a transaction kept losing write
// conflicts until the retry budget ran out.
var ErrRetriesExhausted = errors.New("too much contention, retries exhausted")

// ErrInvalidTransition is returned for a status change the order
// lifecycle does not allow, e.g. cancelling a delivered order.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInvalidRequest is returned for reservation input that can never
// succeed, such as a non-positive box size or a malformed date key.
var ErrInvalidRequest = errors.New("invalid reservation request")

// InsufficientCapacityError reports a reservation rejected because the
// date does not have enough units left. Remaining is the value read
// inside the rejected transaction.
type InsufficientCapacityError struct {
	DateKey   string
	Requested int
	Remaining int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity for %s: requested %d, remaining %d", e.DateKey, e.Requested, e.Remaining)
}

// Is lets callers test with errors.Is(err, repository.ErrInsufficientCapacity).
func (e *InsufficientCapacityError) Is(target error) bool {
	return target == repository.ErrInsufficientCapacity
}
