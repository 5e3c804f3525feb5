package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/repository"
)

// Availability is the public view of a date's capacity.
type Availability struct {
	DateKey   string `json:"date"`
	Total     int    `json:"total_capacity"`
	Remaining int    `json:"remaining_capacity"`
	Reserved  int    `json:"reserved_pieces"`
	SoldOut   bool   `json:"sold_out"`
}

// Ledger is the read path of the capacity ledger. It never creates
// records and never fails: a missing record reads as the full daily
// capacity, and storage errors degrade to the same default.
type Ledger struct {
	store        repository.Store
	total        int
	minAvailable int
	log          *zap.Logger
}

// NewLedger builds a Ledger. total is the per-day ceiling, minAvailable
// the threshold under which a date is shown as sold out.
func NewLedger(store repository.Store, total, minAvailable int, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, total: total, minAvailable: minAvailable, log: log.Named("ledger")}
}

// TotalCapacity returns the configured per-day ceiling.
func (l *Ledger) TotalCapacity() int { return l.total }

// RemainingCapacity returns the units still available on dateKey.
func (l *Ledger) RemainingCapacity(ctx context.Context, dateKey string) int {
	return l.Availability(ctx, dateKey).Remaining
}

// Availability returns the capacity view of dateKey.
func (l *Ledger) Availability(ctx context.Context, dateKey string) Availability {
	a := Availability{DateKey: dateKey, Total: l.total, Remaining: l.total}
	rec, err := l.store.GetCapacity(ctx, dateKey)
	switch {
	case err == nil:
		a.Total = rec.TotalCapacity
		a.Remaining = rec.RemainingCapacity
		a.Reserved = rec.ReservedPieces
	case errors.Is(err, repository.ErrNotFound):
	default:
		l.log.Warn("capacity read failed, using default",
			zap.String("date", dateKey), zap.Int("default", l.total), zap.Error(err))
	}
	a.SoldOut = l.SoldOut(a.Remaining)
	return a
}

// SoldOut reports whether remaining is under the ordering threshold.
func (l *Ledger) SoldOut(remaining int) bool { return remaining < l.minAvailable }
