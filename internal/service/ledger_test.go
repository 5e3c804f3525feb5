package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hmweb77/macaroness/internal/model"
	"github.com/hmweb77/macaroness/internal/repository"
)

// unavailableStore fails every capacity read.
type unavailableStore struct {
	repository.Store
}

func (unavailableStore) GetCapacity(context.Context, string) (model.CapacityRecord, error) {
	return model.CapacityRecord{}, repository.ErrUnavailable
}

func TestAvailabilityFallsBackOnStorageError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ledger := NewLedger(unavailableStore{}, 648, 6, zap.New(core))

	a := ledger.Availability(context.Background(), testDate)
	assert.Equal(t, Availability{DateKey: testDate, Total: 648, Remaining: 648}, a)
	assert.Equal(t, 1, logs.FilterMessage("capacity read failed, using default").Len())
}

func TestAvailabilitySoldOutThreshold(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestService(store, nil, nil)
	ledger := NewLedger(store, 648, 6, zap.NewNop())
	ctx := context.Background()

	_, err := reserveBox(t, svc, 643)
	assert.NoError(t, err)
	a := ledger.Availability(ctx, testDate)
	assert.Equal(t, 5, a.Remaining)
	assert.Equal(t, 643, a.Reserved)
	assert.True(t, a.SoldOut)

	assert.False(t, ledger.Availability(ctx, "2025-11-15").SoldOut)
}

func TestInsufficientCapacityErrorMatchesSentinel(t *testing.T) {
	var err error = &InsufficientCapacityError{DateKey: testDate, Requested: 36, Remaining: 12}
	assert.True(t, errors.Is(err, repository.ErrInsufficientCapacity))
	assert.False(t, errors.Is(err, repository.ErrConflict))
	assert.Contains(t, err.Error(), "remaining 12")
}
