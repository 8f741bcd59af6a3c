package storage

import (
	"context"

	"launchpad-ledger/internal/domain"
)

// RecordKind tags the type of data stored at an address.
type RecordKind uint8

const (
	KindPool RecordKind = iota + 1
	KindTracker
	KindVault
	KindDistribution
	KindClaim
	KindWinner
	KindBalance
)

// String returns the record kind name.
func (k RecordKind) String() string {
	switch k {
	case KindPool:
		return "pool"
	case KindTracker:
		return "tracker"
	case KindVault:
		return "vault"
	case KindDistribution:
		return "distribution"
	case KindClaim:
		return "claim"
	case KindWinner:
		return "winner"
	case KindBalance:
		return "balance"
	default:
		return "unknown"
	}
}

// Record is one addressed entry of the ledger. Data is the record's
// serialized body; the ledger never interprets it.
type Record struct {
	Address string
	Kind    RecordKind
	Data    []byte
}

// Tx is the view of the ledger inside one atomic unit.
// Reads observe the unit's own writes.
type Tx interface {
	// Get returns the record of kind at address. Returns ErrNotFound if absent.
	Get(ctx context.Context, kind RecordKind, address string) (*Record, error)

	// Insert creates a record. Returns ErrDuplicateKey if the address is taken.
	Insert(ctx context.Context, r *Record) error

	// Update replaces an existing record. Returns ErrNotFound if absent.
	Update(ctx context.Context, r *Record) error
}

// Ledger is an addressed record store with all-or-nothing units of work.
type Ledger interface {
	// Atomic runs fn as one unit. If fn returns an error, none of its writes
	// are visible to anyone; otherwise all of them are committed together.
	// Concurrent units that touch the same record are serialized.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// Scan returns every committed record of kind, ordered by address.
	Scan(ctx context.Context, kind RecordKind) ([]*Record, error)

	// Close releases backend resources.
	Close() error
}

// EventJournal provides access to the append-only ledger event log.
type EventJournal interface {
	// Append adds events in order.
	Append(ctx context.Context, events []*domain.Event) error

	// GetByMint retrieves events for a mint within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string, start, end int64) ([]*domain.Event, error)

	// GetByKind retrieves events of a kind within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByKind(ctx context.Context, kind domain.EventKind, start, end int64) ([]*domain.Event, error)
}
