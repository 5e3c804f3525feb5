package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hmweb77/macaroness/internal/model"
)

// CapacityRepo provides data access to the daily_capacity table. Rows are
// keyed by date_key (YYYY-MM-DD). Reads outside a transaction never
// insert; only the Tx methods may materialize a row. All timestamps are
// stored in UTC.
type CapacityRepo struct {
	db *sql.DB
}

// NewCapacityRepo returns a new CapacityRepo bound to the given database.
func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{db: db} }

const capacityColumns = `date_key, total_capacity, remaining_capacity, reserved_pieces, version, last_updated, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapacity(row rowScanner) (model.CapacityRecord, error) {
	var rec model.CapacityRecord
	err := row.Scan(&rec.DateKey, &rec.TotalCapacity, &rec.RemainingCapacity, &rec.ReservedPieces,
		&rec.Version, &rec.LastUpdated, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CapacityRecord{}, ErrNotFound
	}
	return rec, err
}

// GetByDateKey returns the committed record for a date or ErrNotFound.
func (r *CapacityRepo) GetByDateKey(ctx context.Context, dateKey string) (model.CapacityRecord, error) {
	const q = `SELECT ` + capacityColumns + ` FROM daily_capacity WHERE date_key = ?`
	return scanCapacity(r.db.QueryRowContext(ctx, q, dateKey))
}

// EnsureTx inserts the default row for dateKey when it does not exist and
// returns the row as visible to tx. INSERT IGNORE makes concurrent
// first reservations for the same date race-free: the loser's insert is
// a no-op and both read the same row.
func (r *CapacityRepo) EnsureTx(ctx context.Context, tx *sql.Tx, dateKey string, total int) (model.CapacityRecord, error) {
	now := time.Now().UTC()
	const ins = `INSERT IGNORE INTO daily_capacity
                 (date_key, total_capacity, remaining_capacity, reserved_pieces, version, last_updated, created_at)
                 VALUES (?, ?, ?, 0, 0, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins, dateKey, total, total, now, now); err != nil {
		return model.CapacityRecord{}, err
	}
	const q = `SELECT ` + capacityColumns + ` FROM daily_capacity WHERE date_key = ?`
	return scanCapacity(tx.QueryRowContext(ctx, q, dateKey))
}

// UpdateCountsTx stores the remaining/reserved counts of rec guarded by a
// version compare-and-swap. When another transaction committed first the
// update matches no row and ErrConflict is returned. The CHECK on
// remaining_capacity keeps the table itself from going negative.
func (r *CapacityRepo) UpdateCountsTx(ctx context.Context, tx *sql.Tx, rec model.CapacityRecord, now time.Time) (model.CapacityRecord, error) {
	const q = `UPDATE daily_capacity
               SET remaining_capacity = ?, reserved_pieces = ?, version = version + 1, last_updated = ?
               WHERE date_key = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, rec.RemainingCapacity, rec.ReservedPieces, now.UTC(), rec.DateKey, rec.Version)
	if err != nil {
		return model.CapacityRecord{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.CapacityRecord{}, err
	}
	if n == 0 {
		return model.CapacityRecord{}, ErrConflict
	}
	rec.Version++
	rec.LastUpdated = now.UTC()
	return rec, nil
}
