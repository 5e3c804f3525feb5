package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmweb77/macaroness/internal/model"
)

var capacityCols = []string{"date_key", "total_capacity", "remaining_capacity", "reserved_pieces", "version", "last_updated", "created_at"}

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStore(db), mock
}

func TestMySQLStoreGetCapacityNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM daily_capacity WHERE date_key = \?`).
		WithArgs("2025-11-10").
		WillReturnRows(sqlmock.NewRows(capacityCols))

	_, err := s.GetCapacity(context.Background(), "2025-11-10")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreReserveCommits(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT IGNORE INTO daily_capacity`).
		WithArgs("2025-11-10", 648, 648, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM daily_capacity WHERE date_key = \?`).
		WithArgs("2025-11-10").
		WillReturnRows(sqlmock.NewRows(capacityCols).AddRow("2025-11-10", 648, 648, 0, 0, now, now))
	mock.ExpectExec(`UPDATE daily_capacity`).
		WithArgs(612, 36, sqlmock.AnyArg(), "2025-11-10", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var updated model.CapacityRecord
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		rec, err := tx.EnsureCapacity(ctx, "2025-11-10", 648)
		if err != nil {
			return err
		}
		rec.RemainingCapacity -= 36
		rec.ReservedPieces += 36
		if updated, err = tx.UpdateCapacity(ctx, rec, now); err != nil {
			return err
		}
		return tx.InsertOrder(ctx, &model.Order{ID: "o1", DateKey: "2025-11-10", BoxSize: 36, Status: model.OrderPending, CreatedAt: now, UpdatedAt: now})
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), updated.Version)
	assert.Equal(t, 612, updated.RemainingCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreVersionMismatchRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE daily_capacity`).
		WithArgs(600, 48, sqlmock.AnyArg(), "2025-11-10", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		_, err := tx.UpdateCapacity(ctx, model.CapacityRecord{
			DateKey: "2025-11-10", TotalCapacity: 648, RemainingCapacity: 600, ReservedPieces: 48, Version: 3,
		}, now)
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreDeadlockIsConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT IGNORE INTO daily_capacity`).
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		_, err := tx.EnsureCapacity(ctx, "2025-11-10", 648)
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreOrderStatusGuard(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders`).
		WithArgs("cancelled", sqlmock.AnyArg(), sqlmock.AnyArg(), "o1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateOrderStatus(ctx, "o1", model.OrderPending, model.OrderCancelled, time.Now())
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(&mysql.MySQLError{Number: 1205}), ErrConflict)
	assert.ErrorIs(t, classify(mysql.ErrInvalidConn), ErrUnavailable)
	assert.ErrorIs(t, classify(ErrNotFound), ErrNotFound)

	dup := &mysql.MySQLError{Number: 1062}
	assert.Same(t, dup, classify(dup))
}
