// Package feed pushes the remaining capacity of a date to live
// subscribers. Updates are last-value-wins: every message carries the
// capacity record version and a subscriber never sees the value move
// backwards to an older version.
package feed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/model"
	"github.com/hmweb77/macaroness/internal/repository"
)

// Update is one committed capacity value.
type Update struct {
	DateKey   string `json:"date"`
	Remaining int    `json:"remaining"`
	Version   uint64 `json:"version"`
}

// Broadcaster fans updates out to listeners, possibly across processes.
// Listeners may still be invoked briefly after their stop function
// returned; Feed filters those calls.
type Broadcaster interface {
	Publish(ctx context.Context, u Update) error
	Listen(ctx context.Context, dateKey string, fn func(Update)) (stop func(), err error)
}

// CapacityReader reads committed capacity records.
type CapacityReader interface {
	GetCapacity(ctx context.Context, dateKey string) (model.CapacityRecord, error)
}

// Feed combines a broadcaster with the capacity store so new
// subscribers immediately receive the current value.
type Feed struct {
	b     Broadcaster
	store CapacityReader
	total int
	log   *zap.Logger
}

// New returns a Feed. total is delivered for dates without a record and
// as the degraded value when a subscription cannot be established.
func New(b Broadcaster, store CapacityReader, total int, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{b: b, store: store, total: total, log: log.Named("feed")}
}

// Publish announces a committed capacity value.
func (f *Feed) Publish(ctx context.Context, dateKey string, remaining int, version uint64) error {
	return f.b.Publish(ctx, Update{DateKey: dateKey, Remaining: remaining, Version: version})
}

// Subscribe delivers the current remaining capacity of dateKey to
// onUpdate, then every newer committed value, until the returned
// function is called. On error onError is invoked (when non-nil) and the
// default capacity is delivered instead.
//
// The returned function is synchronous: once it returns no callback is
// running and none will run. It must not be called from inside onUpdate.
func (f *Feed) Subscribe(ctx context.Context, dateKey string, onUpdate func(remaining int), onError func(err error)) (unsubscribe func()) {
	sub := &subscription{onUpdate: onUpdate}
	fail := func(err error) {
		f.log.Warn("capacity subscription degraded", zap.String("date", dateKey), zap.Error(err))
		if onError != nil {
			onError(err)
		}
		sub.deliver(f.total, 0)
	}

	stop, err := f.b.Listen(ctx, dateKey, func(u Update) { sub.deliver(u.Remaining, u.Version) })
	if err != nil {
		fail(err)
		return sub.close
	}

	rec, err := f.store.GetCapacity(ctx, dateKey)
	switch {
	case err == nil:
		sub.deliver(rec.RemainingCapacity, rec.Version)
	case errors.Is(err, repository.ErrNotFound):
		sub.deliver(f.total, 0)
	default:
		fail(err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.close()
			stop()
		})
	}
}

type subscription struct {
	mu        sync.Mutex
	onUpdate  func(int)
	closed    bool
	delivered bool
	version   uint64
}

// deliver runs the callback under the lock so close can wait for it.
func (s *subscription) deliver(remaining int, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.delivered && version <= s.version) {
		return
	}
	s.delivered = true
	s.version = version
	s.onUpdate(remaining)
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
