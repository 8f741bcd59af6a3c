package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-ledger/internal/storage"
)

// Ledger implements storage.Ledger using PostgreSQL.
// Each unit is one READ COMMITTED transaction; every read takes a row lock
// (SELECT ... FOR UPDATE) so units touching the same record run one after
// the other.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a new Ledger.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Compile-time interface check.
var _ storage.Ledger = (*Ledger)(nil)

// Atomic runs fn inside one database transaction.
func (l *Ledger) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isConflictError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Scan returns every committed record of kind, ordered by address.
func (l *Ledger) Scan(ctx context.Context, kind storage.RecordKind) ([]*storage.Record, error) {
	query := `
		SELECT address, kind, data
		FROM ledger_records
		WHERE kind = $1
		ORDER BY address ASC
	`

	rows, err := l.pool.Query(ctx, query, int16(kind))
	if err != nil {
		return nil, fmt.Errorf("query ledger records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Close closes the underlying pool.
func (l *Ledger) Close() error {
	l.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Get(ctx context.Context, kind storage.RecordKind, address string) (*storage.Record, error) {
	query := `
		SELECT address, kind, data
		FROM ledger_records
		WHERE address = $1 AND kind = $2
		FOR UPDATE
	`

	var (
		r       storage.Record
		rawKind int16
	)
	err := t.tx.QueryRow(ctx, query, address, int16(kind)).Scan(&r.Address, &rawKind, &r.Data)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		if isConflictError(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("get ledger record: %w", err)
	}
	r.Kind = storage.RecordKind(rawKind)
	return &r, nil
}

// Insert uses ON CONFLICT DO NOTHING so a taken address reports
// ErrDuplicateKey without aborting the surrounding transaction.
func (t *pgTx) Insert(ctx context.Context, r *storage.Record) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger_records (address, kind, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO NOTHING
	`

	tag, err := t.tx.Exec(ctx, query, r.Address, int16(r.Kind), nonNil(r.Data))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConflictError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert ledger record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

func (t *pgTx) Update(ctx context.Context, r *storage.Record) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE ledger_records
		SET data = $3, updated_at = NOW()
		WHERE address = $1 AND kind = $2
	`

	tag, err := t.tx.Exec(ctx, query, r.Address, int16(r.Kind), nonNil(r.Data))
	if err != nil {
		if isConflictError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("update ledger record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanRecords(rows pgx.Rows) ([]*storage.Record, error) {
	var result []*storage.Record
	for rows.Next() {
		var (
			r       storage.Record
			rawKind int16
		)
		if err := rows.Scan(&r.Address, &rawKind, &r.Data); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		r.Kind = storage.RecordKind(rawKind)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger records: %w", err)
	}
	return result, nil
}

// nonNil maps a nil body to an empty one; the column is NOT NULL.
func nonNil(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}
