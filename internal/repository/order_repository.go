package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/hmweb77/macaroness/internal/model"
)

// OrderRepo provides access to the append-only orders table. Rows are
// never deleted; after insertion only status, updated_at and
// cancelled_at change. The flavor selection is stored as a JSON
// document since it is display payload and carries no invariant.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, order_number, date_key, box_size, status, customer_phone, customer_name,
                      address, notes, city, delivery_hours, box_price, delivery_price, total_price,
                      flavors, created_at, updated_at, cancelled_at`

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		o           model.Order
		status      string
		flavors     []byte
		cancelledAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.DateKey, &o.BoxSize, &status, &o.CustomerPhone, &o.CustomerName,
		&o.Address, &o.Notes, &o.City, &o.DeliveryHours, &o.BoxPrice, &o.DeliveryPrice, &o.TotalPrice,
		&flavors, &o.CreatedAt, &o.UpdatedAt, &cancelledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	o.Status = model.OrderStatus(status)
	if len(flavors) > 0 {
		if err := json.Unmarshal(flavors, &o.Flavors); err != nil {
			return model.Order{}, err
		}
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		o.CancelledAt = &t
	}
	return o, nil
}

// CreateTx inserts a new order within the scope of an existing
// transaction. The caller supplies the ID and timestamps and must commit
// or roll back the transaction.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	flavors, err := json.Marshal(o.Flavors)
	if err != nil {
		return err
	}
	const q = `INSERT INTO orders
               (id, order_number, date_key, box_size, status, customer_phone, customer_name,
                address, notes, city, delivery_hours, box_price, delivery_price, total_price,
                flavors, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		o.ID, o.OrderNumber, o.DateKey, o.BoxSize, string(o.Status), o.CustomerPhone, o.CustomerName,
		o.Address, o.Notes, o.City, o.DeliveryHours, o.BoxPrice, o.DeliveryPrice, o.TotalPrice,
		flavors, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	return err
}

// GetByID returns a committed order or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	return scanOrder(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx loads an order inside tx.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	return scanOrder(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx moves an order from one status to another. The WHERE
// clause on the previous status turns a concurrent transition into
// ErrConflict instead of a silent double update, so a cancelled order
// can never restore capacity twice.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, from, to model.OrderStatus, now time.Time) error {
	var cancelledAt any
	if to == model.OrderCancelled {
		cancelledAt = now.UTC()
	}
	const q = `UPDATE orders
               SET status = ?, updated_at = ?, cancelled_at = COALESCE(?, cancelled_at)
               WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), now.UTC(), cancelledAt, id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListByDate returns every order placed for a capacity date, oldest
// first. When no orders exist an empty slice is returned.
func (r *OrderRepo) ListByDate(ctx context.Context, dateKey string) ([]model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE date_key = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, dateKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
