package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"launchpad-ledger/internal/storage"
)

func TestLedger_InsertAndGet(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	err := l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "a1", Kind: storage.KindPool, Data: []byte{1, 2}})
	})
	if err != nil {
		t.Fatalf("Atomic failed: %v", err)
	}

	err = l.Atomic(ctx, func(tx storage.Tx) error {
		r, err := tx.Get(ctx, storage.KindPool, "a1")
		if err != nil {
			return err
		}
		if len(r.Data) != 2 || r.Data[1] != 2 {
			t.Errorf("Data mismatch: got %v", r.Data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestLedger_GetWrongKind(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	_ = l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "a1", Kind: storage.KindPool})
	})

	err := l.Atomic(ctx, func(tx storage.Tx) error {
		_, err := tx.Get(ctx, storage.KindVault, "a1")
		return err
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLedger_DuplicateKey(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	rec := &storage.Record{Address: "a1", Kind: storage.KindClaim}
	if err := l.Atomic(ctx, func(tx storage.Tx) error { return tx.Insert(ctx, rec) }); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := l.Atomic(ctx, func(tx storage.Tx) error { return tx.Insert(ctx, rec) })
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestLedger_IntraUnitDuplicate(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	err := l.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.Insert(ctx, &storage.Record{Address: "a1", Kind: storage.KindClaim}); err != nil {
			return err
		}
		return tx.Insert(ctx, &storage.Record{Address: "a1", Kind: storage.KindClaim})
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Expected nothing committed, got %d records", l.Len())
	}
}

func TestLedger_RollbackOnError(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	_ = l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "a1", Kind: storage.KindBalance, Data: []byte{1}})
	})

	boom := errors.New("boom")
	err := l.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.Update(ctx, &storage.Record{Address: "a1", Kind: storage.KindBalance, Data: []byte{9}}); err != nil {
			return err
		}
		if err := tx.Insert(ctx, &storage.Record{Address: "a2", Kind: storage.KindBalance}); err != nil {
			return err
		}
		// The unit sees its own writes.
		r, err := tx.Get(ctx, storage.KindBalance, "a1")
		if err != nil {
			return err
		}
		if r.Data[0] != 9 {
			t.Errorf("Expected staged value 9, got %d", r.Data[0])
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	recs, _ := l.Scan(ctx, storage.KindBalance)
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record after rollback, got %d", len(recs))
	}
	if recs[0].Data[0] != 1 {
		t.Errorf("Expected original value 1, got %d", recs[0].Data[0])
	}
}

func TestLedger_UpdateMissing(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	err := l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Update(ctx, &storage.Record{Address: "nope", Kind: storage.KindPool})
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLedger_ReturnedRecordIsCopy(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	data := []byte{1}
	_ = l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "a1", Kind: storage.KindPool, Data: data})
	})
	data[0] = 42

	recs, _ := l.Scan(ctx, storage.KindPool)
	recs[0].Data[0] = 99

	recs, _ = l.Scan(ctx, storage.KindPool)
	if recs[0].Data[0] != 1 {
		t.Errorf("Stored data was mutated: got %d", recs[0].Data[0])
	}
}

func TestLedger_ScanOrderedByAddress(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	_ = l.Atomic(ctx, func(tx storage.Tx) error {
		for _, addr := range []string{"c", "a", "b"} {
			if err := tx.Insert(ctx, &storage.Record{Address: addr, Kind: storage.KindTracker}); err != nil {
				return err
			}
		}
		return tx.Insert(ctx, &storage.Record{Address: "z", Kind: storage.KindPool})
	})

	recs, err := l.Scan(ctx, storage.KindTracker)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if recs[i].Address != want {
			t.Errorf("recs[%d] = %s, want %s", i, recs[i].Address, want)
		}
	}
}

func TestLedger_ConcurrentInsertExactlyOnce(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Atomic(ctx, func(tx storage.Tx) error {
				return tx.Insert(ctx, &storage.Record{Address: "lock", Kind: storage.KindClaim})
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, storage.ErrDuplicateKey):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Expected exactly 1 successful insert, got %d", succeeded)
	}
}

func TestLedger_CanceledContext(t *testing.T) {
	l := NewLedger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.Atomic(ctx, func(tx storage.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("fn should not run with a canceled context")
	}
}
