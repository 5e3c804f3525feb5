package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/hmweb77/macaroness/internal/model"
)

// MySQL error numbers that indicate a transaction lost a race and may be
// retried as a whole.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// MySQLStore implements Store on top of the capacity, order and customer
// repositories sharing one connection pool.
type MySQLStore struct {
	db        *sql.DB
	Capacity  *CapacityRepo
	Orders    *OrderRepo
	Customers *CustomerRepo
}

// NewMySQLStore wires the repositories around db. The caller owns db and
// closes it on shutdown.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		db:        db,
		Capacity:  NewCapacityRepo(db),
		Orders:    NewOrderRepo(db),
		Customers: NewCustomerRepo(db),
	}
}

// DB exposes the underlying handle, e.g. for health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

func (s *MySQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MySQLStore) GetCapacity(ctx context.Context, dateKey string) (model.CapacityRecord, error) {
	rec, err := s.Capacity.GetByDateKey(ctx, dateKey)
	return rec, classify(err)
}

func (s *MySQLStore) GetOrder(ctx context.Context, id string) (model.Order, error) {
	o, err := s.Orders.GetByID(ctx, id)
	return o, classify(err)
}

func (s *MySQLStore) ListOrdersByDate(ctx context.Context, dateKey string) ([]model.Order, error) {
	orders, err := s.Orders.ListByDate(ctx, dateKey)
	return orders, classify(err)
}

func (s *MySQLStore) UpsertCustomer(ctx context.Context, c CustomerUpsert) error {
	return classify(s.Customers.Upsert(ctx, c))
}

func (s *MySQLStore) GetCustomer(ctx context.Context, phone string) (model.Customer, error) {
	c, err := s.Customers.GetByPhone(ctx, phone)
	return c, classify(err)
}

// WithinTx begins a transaction, runs fn and commits. Any error from fn
// or from commit rolls the transaction back; deadlocks and lock wait
// timeouts are reported as ErrConflict so the caller can retry.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()
	if err := fn(ctx, &mysqlTx{tx: sqlTx, store: s}); err != nil {
		return classify(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

type mysqlTx struct {
	tx    *sql.Tx
	store *MySQLStore
}

func (t *mysqlTx) EnsureCapacity(ctx context.Context, dateKey string, total int) (model.CapacityRecord, error) {
	return t.store.Capacity.EnsureTx(ctx, t.tx, dateKey, total)
}

func (t *mysqlTx) UpdateCapacity(ctx context.Context, rec model.CapacityRecord, now time.Time) (model.CapacityRecord, error) {
	return t.store.Capacity.UpdateCountsTx(ctx, t.tx, rec, now)
}

func (t *mysqlTx) InsertOrder(ctx context.Context, o *model.Order) error {
	return t.store.Orders.CreateTx(ctx, t.tx, o)
}

func (t *mysqlTx) GetOrder(ctx context.Context, id string) (model.Order, error) {
	return t.store.Orders.GetByIDTx(ctx, t.tx, id)
}

func (t *mysqlTx) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus, now time.Time) error {
	return t.store.Orders.UpdateStatusTx(ctx, t.tx, id, from, to, now)
}

// classify maps driver errors onto the package sentinels while keeping
// the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientCapacity) || errors.Is(err, ErrUnavailable) {
		return err
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
