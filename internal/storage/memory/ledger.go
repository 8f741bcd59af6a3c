package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-ledger/internal/storage"
)

// Ledger is an in-memory implementation of storage.Ledger.
// Units run one at a time under a single lock; writes are staged and
// applied only when the unit returns nil.
type Ledger struct {
	mu   sync.Mutex
	data map[string]*storage.Record // keyed by address
}

// NewLedger creates a new in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		data: make(map[string]*storage.Record),
	}
}

// Atomic runs fn as one unit.
func (l *Ledger) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &memTx{
		base:   l.data,
		staged: make(map[string]*storage.Record),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for addr, r := range tx.staged {
		l.data[addr] = r
	}
	return nil
}

// Scan returns every committed record of kind, ordered by address.
func (l *Ledger) Scan(_ context.Context, kind storage.RecordKind) ([]*storage.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []*storage.Record
	for _, r := range l.data {
		if r.Kind == kind {
			result = append(result, cloneRecord(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return result, nil
}

// Close is a no-op.
func (l *Ledger) Close() error { return nil }

// Len returns the number of committed records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.data)
}

type memTx struct {
	base   map[string]*storage.Record
	staged map[string]*storage.Record
}

func (t *memTx) lookup(address string) (*storage.Record, bool) {
	if r, ok := t.staged[address]; ok {
		return r, true
	}
	r, ok := t.base[address]
	return r, ok
}

func (t *memTx) Get(_ context.Context, kind storage.RecordKind, address string) (*storage.Record, error) {
	r, ok := t.lookup(address)
	if !ok || r.Kind != kind {
		return nil, storage.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (t *memTx) Insert(_ context.Context, r *storage.Record) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}
	if _, exists := t.lookup(r.Address); exists {
		return storage.ErrDuplicateKey
	}
	t.staged[r.Address] = cloneRecord(r)
	return nil
}

func (t *memTx) Update(_ context.Context, r *storage.Record) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}
	existing, exists := t.lookup(r.Address)
	if !exists || existing.Kind != r.Kind {
		return storage.ErrNotFound
	}
	t.staged[r.Address] = cloneRecord(r)
	return nil
}

func cloneRecord(r *storage.Record) *storage.Record {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	return &storage.Record{Address: r.Address, Kind: r.Kind, Data: data}
}

var _ storage.Ledger = (*Ledger)(nil)
