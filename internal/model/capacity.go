package model

import "time"

// DateKeyLayout is the canonical key format of a capacity date.
const DateKeyLayout = "2006-01-02"

// CapacityRecord tracks the production pool of a single calendar day.
// Capacity is counted in pieces: every order consumes as many units as
// its box holds.
//
// Fields:
//  DateKey           – calendar date formatted as YYYY-MM-DD (primary key).
//  TotalCapacity     – fixed ceiling for the day.
//  RemainingCapacity – units still available; always Total − Reserved.
//  ReservedPieces    – sum of box sizes of all non-cancelled orders.
//  Version           – bumped on every mutation, used for compare-and-swap.
//  LastUpdated       – time of the last mutation.
//  CreatedAt         – time the record was first materialized.
type CapacityRecord struct {
	DateKey           string    // daily_capacity.date_key
	TotalCapacity     int       // daily_capacity.total_capacity
	RemainingCapacity int       // daily_capacity.remaining_capacity
	ReservedPieces    int       // daily_capacity.reserved_pieces
	Version           uint64    // daily_capacity.version
	LastUpdated       time.Time // daily_capacity.last_updated
	CreatedAt         time.Time // daily_capacity.created_at
}

// NewCapacityRecord returns the default record for a date that has no
// reservations yet. It is not persisted.
func NewCapacityRecord(dateKey string, total int) CapacityRecord {
	return CapacityRecord{
		DateKey:           dateKey,
		TotalCapacity:     total,
		RemainingCapacity: total,
	}
}

// Consistent reports whether the record satisfies the ledger invariant.
func (r CapacityRecord) Consistent() bool {
	return r.RemainingCapacity >= 0 &&
		r.RemainingCapacity <= r.TotalCapacity &&
		r.RemainingCapacity+r.ReservedPieces == r.TotalCapacity
}

// DateKey formats t as a capacity key using its own calendar date.
func DateKey(t time.Time) string { return t.Format(DateKeyLayout) }

// ParseDateKey parses a YYYY-MM-DD key in the given location.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateKeyLayout, key, loc)
}
