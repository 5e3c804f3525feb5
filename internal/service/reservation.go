package service

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/model"
	"github.com/hmweb77/macaroness/internal/queue"
	"github.com/hmweb77/macaroness/internal/repository"
)

// CapacityPublisher pushes committed capacity values to live subscribers.
type CapacityPublisher interface {
	Publish(ctx context.Context, dateKey string, remaining int, version uint64) error
}

// Notifier delivers the operator summary of a placed order.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// Customer is the shopper identity attached to a reservation.
type Customer struct {
	Name    string
	Phone   string
	Address string
	Notes   string
}

// OrderPayload is the non-invariant part of an order: pricing, delivery
// details and the flavor selection, as resolved against the catalog.
type OrderPayload struct {
	OrderNumber   string
	City          string
	DeliveryHours int
	BoxPrice      int
	DeliveryPrice int
	TotalPrice    int
	Flavors       model.FlavorSelection
}

// ReserveRequest asks for BoxSize units on DateKey.
type ReserveRequest struct {
	DateKey  string
	BoxSize  int
	Customer Customer
	Payload  OrderPayload
}

// ReserveResult describes a committed reservation.
type ReserveResult struct {
	OrderID           string
	OrderNumber       string
	RemainingCapacity int
	Order             model.Order
}

// ReservationOptions tune the reservation service. Zero values select
// the defaults.
type ReservationOptions struct {
	TotalCapacity int
	MaxRetries    int
	RetryBackoff  time.Duration
	NotifyTimeout time.Duration
}

// ReservationService is the only writer of capacity records. Every
// reservation and cancellation runs as one store transaction which is
// retried as a whole when it loses a write conflict.
type ReservationService struct {
	store     repository.Store
	publisher CapacityPublisher
	notifier  Notifier
	log       *zap.Logger

	total         int
	maxRetries    int
	backoff       time.Duration
	notifyTimeout time.Duration

	now func() time.Time
	wg  sync.WaitGroup
}

// NewReservationService wires the service. publisher and notifier may be
// nil, in which case the matching side effect is skipped.
func NewReservationService(store repository.Store, publisher CapacityPublisher, notifier Notifier, log *zap.Logger, opts ReservationOptions) *ReservationService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TotalCapacity <= 0 {
		opts.TotalCapacity = 648
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 20 * time.Millisecond
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	return &ReservationService{
		store:         store,
		publisher:     publisher,
		notifier:      notifier,
		log:           log.Named("reservation"),
		total:         opts.TotalCapacity,
		maxRetries:    opts.MaxRetries,
		backoff:       opts.RetryBackoff,
		notifyTimeout: opts.NotifyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Reserve atomically takes BoxSize units from DateKey and records the
// order. When the date does not have enough units left it returns an
// *InsufficientCapacityError and nothing is written.
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (ReserveResult, error) {
	if req.BoxSize <= 0 {
		return ReserveResult{}, fmt.Errorf("%w: box size %d", ErrInvalidRequest, req.BoxSize)
	}
	if _, err := model.ParseDateKey(req.DateKey, time.UTC); err != nil {
		return ReserveResult{}, fmt.Errorf("%w: date %q", ErrInvalidRequest, req.DateKey)
	}

	orderNumber := strings.ToUpper(strings.TrimSpace(req.Payload.OrderNumber))
	if orderNumber == "" {
		orderNumber = NewOrderNumber()
	}
	if err := checkFields(orderNumber, req.Customer); err != nil {
		return ReserveResult{}, err
	}

	var (
		order model.Order
		rec   model.CapacityRecord
	)
	err := s.withRetry(ctx, "reserve", func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.EnsureCapacity(ctx, req.DateKey, s.total)
		if err != nil {
			return err
		}
		if cur.RemainingCapacity-req.BoxSize < 0 {
			return &InsufficientCapacityError{DateKey: req.DateKey, Requested: req.BoxSize, Remaining: cur.RemainingCapacity}
		}
		now := s.now()
		cur.RemainingCapacity -= req.BoxSize
		cur.ReservedPieces += req.BoxSize
		updated, err := tx.UpdateCapacity(ctx, cur, now)
		if err != nil {
			return err
		}

		o := model.Order{
			ID:            uuid.NewString(),
			OrderNumber:   orderNumber,
			DateKey:       req.DateKey,
			BoxSize:       req.BoxSize,
			Status:        model.OrderPending,
			CustomerPhone: req.Customer.Phone,
			CustomerName:  req.Customer.Name,
			Address:       req.Customer.Address,
			Notes:         req.Customer.Notes,
			City:          req.Payload.City,
			DeliveryHours: req.Payload.DeliveryHours,
			BoxPrice:      req.Payload.BoxPrice,
			DeliveryPrice: req.Payload.DeliveryPrice,
			TotalPrice:    req.Payload.TotalPrice,
			Flavors:       req.Payload.Flavors,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertOrder(ctx, &o); err != nil {
			return err
		}
		order, rec = o, updated
		return nil
	})
	if err != nil {
		return ReserveResult{}, err
	}

	s.log.Info("order reserved",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("date", order.DateKey),
		zap.Int("box_size", order.BoxSize),
		zap.Int("remaining", rec.RemainingCapacity),
	)

	s.upsertCustomer(ctx, order)
	s.publish(ctx, rec)
	s.dispatch(queue.NewOrderPlacedEvent(order, rec.RemainingCapacity))

	return ReserveResult{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		RemainingCapacity: rec.RemainingCapacity,
		Order:             order,
	}, nil
}

// Cancel cancels an order and returns its units to the date. Cancelling
// an already cancelled order is a no-op. Unknown orders yield
// repository.ErrNotFound.
func (s *ReservationService) Cancel(ctx context.Context, orderID string) error {
	var (
		rec     model.CapacityRecord
		changed bool
	)
	err := s.withRetry(ctx, "cancel", func(ctx context.Context, tx repository.Tx) error {
		changed = false
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == model.OrderCancelled {
			return nil
		}
		if !o.Status.CanTransition(model.OrderCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, model.OrderCancelled)
		}
		cur, err := tx.EnsureCapacity(ctx, o.DateKey, s.total)
		if err != nil {
			return err
		}
		cur.RemainingCapacity += o.BoxSize
		cur.ReservedPieces -= o.BoxSize
		if !cur.Consistent() {
			return fmt.Errorf("capacity record %s does not cover order %s", o.DateKey, o.ID)
		}
		now := s.now()
		updated, err := tx.UpdateCapacity(ctx, cur, now)
		if err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, o.ID, o.Status, model.OrderCancelled, now); err != nil {
			return err
		}
		rec, changed = updated, true
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("order cancelled",
			zap.String("order_id", orderID),
			zap.String("date", rec.DateKey),
			zap.Int("remaining", rec.RemainingCapacity),
		)
		s.publish(ctx, rec)
	}
	return nil
}

// UpdateStatus moves an order along its lifecycle. Cancellation is
// delegated to Cancel so the units are restored.
func (s *ReservationService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if status == model.OrderCancelled {
		return s.Cancel(ctx, orderID)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	return s.withRetry(ctx, "update_status", func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == status {
			return nil
		}
		if !o.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
		}
		return tx.UpdateOrderStatus(ctx, o.ID, o.Status, status, s.now())
	})
}

// Order returns a committed order.
func (s *ReservationService) Order(ctx context.Context, orderID string) (model.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// OrdersForDate lists the orders placed for dateKey, oldest first.
func (s *ReservationService) OrdersForDate(ctx context.Context, dateKey string) ([]model.Order, error) {
	return s.store.ListOrdersByDate(ctx, dateKey)
}

// Wait blocks until in-flight notifications have finished.
func (s *ReservationService) Wait() { s.wg.Wait() }

// withRetry runs fn in a store transaction, retrying the whole body with
// a linear backoff while the store reports write conflicts.
func (s *ReservationService) withRetry(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.store.WithinTx(ctx, fn)
		if err == nil || !errors.Is(err, repository.ErrConflict) {
			return err
		}
		s.log.Debug("transaction conflict",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == s.maxRetries {
			break
		}
		t := time.NewTimer(time.Duration(attempt) * s.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	s.log.Warn("retries exhausted", zap.String("op", op), zap.Int("attempts", s.maxRetries), zap.Error(err))
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrRetriesExhausted, op, s.maxRetries, err)
}

func (s *ReservationService) upsertCustomer(ctx context.Context, o model.Order) {
	if o.CustomerPhone == "" {
		return
	}
	err := s.store.UpsertCustomer(ctx, repository.CustomerUpsert{
		Phone:   o.CustomerPhone,
		Name:    o.CustomerName,
		Address: o.Address,
		Note:    o.Notes,
		At:      o.CreatedAt,
	})
	if err != nil {
		s.log.Warn("customer upsert failed", zap.String("phone", o.CustomerPhone), zap.Error(err))
	}
}

func (s *ReservationService) publish(ctx context.Context, rec model.CapacityRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, rec.DateKey, rec.RemainingCapacity, rec.Version); err != nil {
		s.log.Warn("capacity publish failed", zap.String("date", rec.DateKey), zap.Error(err))
	}
}

// dispatch hands the event to the notifier on its own goroutine. The
// request context is not used: the order is committed whether or not the
// shopper is still connected.
func (s *ReservationService) dispatch(ev queue.OrderPlacedEvent) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyOrderPlaced(ctx, ev); err != nil {
			s.log.Warn("order notification failed", zap.String("order_id", ev.OrderID), zap.Error(err))
		}
	}()
}

const orderNumberLen = 8

// Field limits, matching the orders and customers column widths.
const (
	MaxOrderNumberLen = 16
	MaxPhoneLen       = 32
	MaxNameLen        = 255
	MaxAddressLen     = 1000
	MaxNotesLen       = 2000
)

// checkFields rejects text that the store could not hold.
func checkFields(orderNumber string, c Customer) error {
	if len(orderNumber) > MaxOrderNumberLen {
		return fmt.Errorf("%w: order number longer than %d characters", ErrInvalidRequest, MaxOrderNumberLen)
	}
	for _, r := range orderNumber {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("%w: order number %q is not alphanumeric", ErrInvalidRequest, orderNumber)
		}
	}
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"phone", c.Phone, MaxPhoneLen},
		{"name", c.Name, MaxNameLen},
		{"address", c.Address, MaxAddressLen},
		{"notes", c.Notes, MaxNotesLen},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return fmt.Errorf("%w: %s longer than %d characters", ErrInvalidRequest, l.field, l.max)
		}
	}
	return nil
}

// NewOrderNumber returns an 8 character uppercase base36 display number.
// Numbers are not guaranteed unique; the order ID is the storage key.
func NewOrderNumber() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8]) % 2821109907456 // 36^8
	s := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(s) < orderNumberLen {
		s = strings.Repeat("0", orderNumberLen-len(s)) + s
	}
	return s
}
