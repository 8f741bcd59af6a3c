package clickhouse

import (
	"context"
	"fmt"
	"sync/atomic"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/storage"
)

// EventJournal implements storage.EventJournal using ClickHouse.
// Rows land in a ReplacingMergeTree keyed by a deterministic event_id, so a
// retried batch does not double-count after merges.
type EventJournal struct {
	conn *Conn
	seq  atomic.Uint64
}

// NewEventJournal creates a new EventJournal.
func NewEventJournal(conn *Conn) *EventJournal {
	return &EventJournal{conn: conn}
}

// Compile-time interface check.
var _ storage.EventJournal = (*EventJournal)(nil)

// Append adds events in one batch.
func (j *EventJournal) Append(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e == nil || e.Kind == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := j.conn.PrepareBatch(ctx, `
		INSERT INTO ledger_events (
			event_id, kind, mint, actor, distribution, side,
			amount_in, amount_out, amount, price, status, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		id := idhash.ComputeEventID(string(e.Kind), e.Mint, e.Actor, e.Distribution, e.Timestamp, j.seq.Add(1))
		err = batch.Append(
			id, string(e.Kind), e.Mint, e.Actor, e.Distribution, e.Side,
			e.AmountIn, e.AmountOut, e.Amount, e.Price, e.Status, e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMint retrieves events for a mint within [start, end] (inclusive).
func (j *EventJournal) GetByMint(ctx context.Context, mint string, start, end int64) ([]*domain.Event, error) {
	query := `
		SELECT kind, mint, actor, distribution, side,
			amount_in, amount_out, amount, price, status, timestamp
		FROM ledger_events FINAL
		WHERE mint = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, event_id ASC
	`

	rows, err := j.conn.Query(ctx, query, mint, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by mint: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByKind retrieves events of a kind within [start, end] (inclusive).
func (j *EventJournal) GetByKind(ctx context.Context, kind domain.EventKind, start, end int64) ([]*domain.Event, error) {
	query := `
		SELECT kind, mint, actor, distribution, side,
			amount_in, amount_out, amount, price, status, timestamp
		FROM ledger_events FINAL
		WHERE kind = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, event_id ASC
	`

	rows, err := j.conn.Query(ctx, query, string(kind), start, end)
	if err != nil {
		return nil, fmt.Errorf("query by kind: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows chRows) ([]*domain.Event, error) {
	var result []*domain.Event
	for rows.Next() {
		var (
			e    domain.Event
			kind string
		)
		err := rows.Scan(
			&kind, &e.Mint, &e.Actor, &e.Distribution, &e.Side,
			&e.AmountIn, &e.AmountOut, &e.Amount, &e.Price, &e.Status, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}
