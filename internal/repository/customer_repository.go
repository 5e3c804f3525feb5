package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hmweb77/macaroness/internal/model"
)

// CustomerRepo maintains the customers table, keyed by phone number.
// Writes are plain upserts without concurrency control; when two orders
// from the same phone race, the last write wins for name and address
// while order_count still counts both.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a new CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// Upsert creates the customer on their first order or refreshes the
// profile and bumps the order count. Non-empty notes are appended to the
// note history.
func (r *CustomerRepo) Upsert(ctx context.Context, c CustomerUpsert) error {
	at := c.At.UTC()
	const q = `INSERT INTO customers (phone, name, address, notes, order_count, last_order_at, created_at, updated_at)
               VALUES (?, ?, ?, ?, 1, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                 name = VALUES(name),
                 address = IF(VALUES(address) = '', address, VALUES(address)),
                 notes = IF(VALUES(notes) = '', notes, CONCAT_WS('\n', NULLIF(notes, ''), VALUES(notes))),
                 order_count = order_count + 1,
                 last_order_at = VALUES(last_order_at),
                 updated_at = VALUES(updated_at)`
	_, err := r.db.ExecContext(ctx, q, c.Phone, c.Name, c.Address, c.Note, at, at, at)
	return err
}

// GetByPhone returns a customer or ErrNotFound.
func (r *CustomerRepo) GetByPhone(ctx context.Context, phone string) (model.Customer, error) {
	const q = `SELECT phone, name, address, notes, order_count, last_order_at, created_at, updated_at
               FROM customers WHERE phone = ?`
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, phone).Scan(&c.Phone, &c.Name, &c.Address, &c.Notes,
		&c.OrderCount, &c.LastOrderAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}
