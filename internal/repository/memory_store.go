package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hmweb77/macaroness/internal/model"
)

// MemoryStore is an in-process Store with optimistic transactions:
// a transaction reads committed state, buffers its writes, and at commit
// validates that every record it read is unchanged before applying the
// buffer. Concurrent transactions on the same date therefore conflict
// exactly like the MySQL store does and must be retried by the caller.
type MemoryStore struct {
	mu        sync.RWMutex
	capacity  map[string]model.CapacityRecord
	orders    map[string]model.Order
	customers map[string]model.Customer

	// BeforeCommit, when set, runs after a transaction body succeeded and
	// before its writes are validated and applied. Returning an error
	// aborts the transaction.
	BeforeCommit func(ctx context.Context) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		capacity:  make(map[string]model.CapacityRecord),
		orders:    make(map[string]model.Order),
		customers: make(map[string]model.Customer),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) GetCapacity(ctx context.Context, dateKey string) (model.CapacityRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.CapacityRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.capacity[dateKey]
	if !ok {
		return model.CapacityRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, ErrNotFound
	}
	return o, nil
}

func (s *MemoryStore) ListOrdersByDate(ctx context.Context, dateKey string) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Order, 0)
	for _, o := range s.orders {
		if o.DateKey == dateKey {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpsertCustomer(ctx context.Context, c CustomerUpsert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at := c.At.UTC()
	cur, ok := s.customers[c.Phone]
	if !ok {
		cur = model.Customer{Phone: c.Phone, CreatedAt: at}
	}
	cur.Name = c.Name
	if c.Address != "" {
		cur.Address = c.Address
	}
	if c.Note != "" {
		cur.Notes = strings.TrimPrefix(cur.Notes+"\n"+c.Note, "\n")
	}
	cur.OrderCount++
	cur.LastOrderAt = at
	cur.UpdatedAt = at
	s.customers[c.Phone] = cur
	return nil
}

func (s *MemoryStore) GetCustomer(ctx context.Context, phone string) (model.Customer, error) {
	if err := ctx.Err(); err != nil {
		return model.Customer{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[phone]
	if !ok {
		return model.Customer{}, ErrNotFound
	}
	return c, nil
}

// WithinTx runs fn against a buffered view and commits atomically.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memTx{
		s:             s,
		capRead:       make(map[string]capRead),
		capWrites:     make(map[string]model.CapacityRecord),
		orderRead:     make(map[string]model.OrderStatus),
		orderWrites:   make(map[string]model.Order),
		orderInserted: make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.BeforeCommit != nil {
		if err := s.BeforeCommit(ctx); err != nil {
			return err
		}
	}
	return tx.commit()
}

// capRead remembers what a transaction saw for a date so commit can
// detect concurrent modification.
type capRead struct {
	existed bool
	version uint64
}

type memTx struct {
	s             *MemoryStore
	capRead       map[string]capRead
	capWrites     map[string]model.CapacityRecord
	orderRead     map[string]model.OrderStatus
	orderWrites   map[string]model.Order
	orderInserted map[string]bool
}

func (t *memTx) EnsureCapacity(ctx context.Context, dateKey string, total int) (model.CapacityRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.CapacityRecord{}, err
	}
	if rec, ok := t.capWrites[dateKey]; ok {
		return rec, nil
	}
	t.s.mu.RLock()
	rec, ok := t.s.capacity[dateKey]
	t.s.mu.RUnlock()
	if _, seen := t.capRead[dateKey]; !seen {
		t.capRead[dateKey] = capRead{existed: ok, version: rec.Version}
	}
	if !ok {
		now := time.Now().UTC()
		rec = model.NewCapacityRecord(dateKey, total)
		rec.CreatedAt = now
		rec.LastUpdated = now
		t.capWrites[dateKey] = rec
	}
	return rec, nil
}

func (t *memTx) UpdateCapacity(ctx context.Context, rec model.CapacityRecord, now time.Time) (model.CapacityRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.CapacityRecord{}, err
	}
	cur, ok := t.capWrites[rec.DateKey]
	if !ok {
		t.s.mu.RLock()
		cur, ok = t.s.capacity[rec.DateKey]
		t.s.mu.RUnlock()
	}
	if !ok || cur.Version != rec.Version {
		return model.CapacityRecord{}, ErrConflict
	}
	if rec.RemainingCapacity < 0 {
		return model.CapacityRecord{}, fmt.Errorf("daily_capacity check violated for %s", rec.DateKey)
	}
	rec.Version++
	rec.LastUpdated = now.UTC()
	rec.CreatedAt = cur.CreatedAt
	t.capWrites[rec.DateKey] = rec
	return rec, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, dup := t.orderWrites[o.ID]; dup {
		return fmt.Errorf("duplicate order id %s", o.ID)
	}
	t.orderWrites[o.ID] = *o
	t.orderInserted[o.ID] = true
	return nil
}

func (t *memTx) GetOrder(ctx context.Context, id string) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	if o, ok := t.orderWrites[id]; ok {
		return o, nil
	}
	t.s.mu.RLock()
	o, ok := t.s.orders[id]
	t.s.mu.RUnlock()
	if !ok {
		return model.Order{}, ErrNotFound
	}
	if _, seen := t.orderRead[id]; !seen {
		t.orderRead[id] = o.Status
	}
	return o, nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus, now time.Time) error {
	o, err := t.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != from {
		return ErrConflict
	}
	o.Status = to
	o.UpdatedAt = now.UTC()
	if to == model.OrderCancelled {
		at := now.UTC()
		o.CancelledAt = &at
	}
	t.orderWrites[id] = o
	return nil
}

// commit validates the read set against committed state and applies the
// write set under one lock.
func (t *memTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for key, r := range t.capRead {
		cur, ok := t.s.capacity[key]
		if ok != r.existed || (ok && cur.Version != r.version) {
			return ErrConflict
		}
	}
	for id, status := range t.orderRead {
		if cur, ok := t.s.orders[id]; !ok || cur.Status != status {
			return ErrConflict
		}
	}
	for id := range t.orderInserted {
		if _, exists := t.s.orders[id]; exists {
			return fmt.Errorf("duplicate order id %s", id)
		}
	}
	for key, rec := range t.capWrites {
		t.s.capacity[key] = rec
	}
	for id, o := range t.orderWrites {
		t.s.orders[id] = o
	}
	return nil
}
