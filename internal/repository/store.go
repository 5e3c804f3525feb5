package repository

import (
	"context"
	"time"

	"github.com/hmweb77/macaroness/internal/model"
)

// Store is the storage client injected into the ledger and reservation
// services. Capacity records are only mutated through a Tx obtained from
// WithinTx.
type Store interface {
	// GetCapacity returns the committed record for dateKey or ErrNotFound.
	// It never creates a record.
	GetCapacity(ctx context.Context, dateKey string) (model.CapacityRecord, error)
	// WithinTx runs fn inside one atomic transaction. When fn returns an
	// error nothing it wrote is persisted. Write conflicts detected by the
	// store surface as ErrConflict (possibly wrapped).
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetOrder(ctx context.Context, id string) (model.Order, error)
	ListOrdersByDate(ctx context.Context, dateKey string) ([]model.Order, error)

	UpsertCustomer(ctx context.Context, c CustomerUpsert) error
	GetCustomer(ctx context.Context, phone string) (model.Customer, error)

	Ping(ctx context.Context) error
}

// Tx is the transactional view handed to WithinTx callbacks.
type Tx interface {
	// EnsureCapacity returns the record for dateKey as seen by this
	// transaction, materializing the default {total, total, 0} when the
	// date has no record yet.
	EnsureCapacity(ctx context.Context, dateKey string, total int) (model.CapacityRecord, error)
	// UpdateCapacity writes the remaining/reserved counts of rec if the
	// stored version still equals rec.Version. It returns the record with
	// its new version, or ErrConflict when the version moved.
	UpdateCapacity(ctx context.Context, rec model.CapacityRecord, now time.Time) (model.CapacityRecord, error)
	InsertOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (model.Order, error)
	// UpdateOrderStatus moves order id from status from to status to. It
	// returns ErrConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus, now time.Time) error
}

// CustomerUpsert carries the directory write performed after an order.
type CustomerUpsert struct {
	Phone   string
	Name    string
	Address string
	Note    string
	At      time.Time
}
