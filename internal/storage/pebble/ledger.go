// Package pebble is an embedded, on-disk storage.Ledger backed by
// cockroachdb/pebble.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"launchpad-ledger/internal/storage"
)

// Ledger implements storage.Ledger on a pebble database.
// Keys are the record kind byte followed by the address; values are the
// record body. A unit stages its writes in an indexed batch, so reads see
// them, and commits the batch with a synced write. Units are serialized by
// a mutex since pebble has no row locks.
type Ledger struct {
	mu sync.Mutex
	db *pebble.DB
}

// Open opens (or creates) a pebble ledger in dir.
func Open(dir string) (*Ledger, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &Ledger{db: db}, nil
}

// Compile-time interface check.
var _ storage.Ledger = (*Ledger)(nil)

// Atomic runs fn against an indexed batch and commits it if fn succeeds.
func (l *Ledger) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	batch := l.db.NewIndexedBatch()
	defer batch.Close()

	if err := fn(&batchTx{batch: batch}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Scan returns every committed record of kind, ordered by address.
func (l *Ledger) Scan(_ context.Context, kind storage.RecordKind) ([]*storage.Record, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{byte(kind)},
		UpperBound: []byte{byte(kind) + 1},
	})
	if err != nil {
		return nil, fmt.Errorf("new iterator: %w", err)
	}
	defer iter.Close()

	var result []*storage.Record
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		value := iter.Value()

		data := make([]byte, len(value))
		copy(data, value)
		result = append(result, &storage.Record{
			Address: string(key[1:]),
			Kind:    kind,
			Data:    data,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w", kind, err)
	}
	return result, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

type batchTx struct {
	batch *pebble.Batch
}

func recordKey(kind storage.RecordKind, address string) []byte {
	key := make([]byte, 0, 1+len(address))
	key = append(key, byte(kind))
	return append(key, address...)
}

func (t *batchTx) get(key []byte) ([]byte, error) {
	value, closer, err := t.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	defer closer.Close()

	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}

func (t *batchTx) Get(_ context.Context, kind storage.RecordKind, address string) (*storage.Record, error) {
	data, err := t.get(recordKey(kind, address))
	if err != nil {
		return nil, err
	}
	return &storage.Record{Address: address, Kind: kind, Data: data}, nil
}

// Insert rejects an address already taken by any kind, matching the
// single-table backends.
func (t *batchTx) Insert(_ context.Context, r *storage.Record) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}
	taken, err := t.addressTaken(r.Address)
	if err != nil {
		return err
	}
	if taken {
		return storage.ErrDuplicateKey
	}
	if err := t.batch.Set(recordKey(r.Kind, r.Address), r.Data, nil); err != nil {
		return fmt.Errorf("stage insert: %w", err)
	}
	return nil
}

func (t *batchTx) Update(_ context.Context, r *storage.Record) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}
	key := recordKey(r.Kind, r.Address)
	if _, err := t.get(key); err != nil {
		return err
	}
	if err := t.batch.Set(key, r.Data, nil); err != nil {
		return fmt.Errorf("stage update: %w", err)
	}
	return nil
}

func (t *batchTx) addressTaken(address string) (bool, error) {
	for kind := storage.KindPool; kind <= storage.KindBalance; kind++ {
		_, err := t.get(recordKey(kind, address))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}
