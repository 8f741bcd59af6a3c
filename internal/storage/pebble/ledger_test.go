package pebble

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-ledger/internal/storage"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := l.Close(); err != nil {
			t.Logf("close ledger: %v", err)
		}
	})
	return l
}

func TestLedger_InsertAndGet(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "vault-1", Kind: storage.KindVault, Data: []byte("body")})
	}))

	require.NoError(t, l.Atomic(ctx, func(tx storage.Tx) error {
		r, err := tx.Get(ctx, storage.KindVault, "vault-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("body"), r.Data)
		assert.Equal(t, storage.KindVault, r.Kind)
		return nil
	}))
}

func TestLedger_DuplicateAcrossKinds(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "addr", Kind: storage.KindPool, Data: []byte{1}})
	}))

	err := l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "addr", Kind: storage.KindClaim, Data: []byte{1}})
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestLedger_RollbackOnError(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "b1", Kind: storage.KindBalance, Data: []byte{1}})
	}))

	boom := errors.New("boom")
	err := l.Atomic(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.Update(ctx, &storage.Record{Address: "b1", Kind: storage.KindBalance, Data: []byte{7}}))
		require.NoError(t, tx.Insert(ctx, &storage.Record{Address: "b2", Kind: storage.KindBalance, Data: []byte{2}}))

		r, err := tx.Get(ctx, storage.KindBalance, "b1")
		require.NoError(t, err)
		assert.Equal(t, []byte{7}, r.Data, "unit must read its own writes")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	recs, err := l.Scan(ctx, storage.KindBalance)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b1", recs[0].Address)
	assert.Equal(t, []byte{1}, recs[0].Data)
}

func TestLedger_ScanByKind(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Atomic(ctx, func(tx storage.Tx) error {
		for _, addr := range []string{"t3", "t1", "t2"} {
			if err := tx.Insert(ctx, &storage.Record{Address: addr, Kind: storage.KindTracker, Data: []byte(addr)}); err != nil {
				return err
			}
		}
		return tx.Insert(ctx, &storage.Record{Address: "p1", Kind: storage.KindPool, Data: []byte{1}})
	}))

	recs, err := l.Scan(ctx, storage.KindTracker)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "t1", recs[0].Address)
	assert.Equal(t, "t2", recs[1].Address)
	assert.Equal(t, "t3", recs[2].Address)
}

func TestLedger_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "c1", Kind: storage.KindClaim, Data: []byte{1}})
	}))
	require.NoError(t, l.Close())

	l, err = Open(dir)
	require.NoError(t, err)
	defer l.Close()

	err = l.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Insert(ctx, &storage.Record{Address: "c1", Kind: storage.KindClaim, Data: []byte{1}})
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestLedger_ConcurrentInsertExactlyOnce(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Atomic(ctx, func(tx storage.Tx) error {
				return tx.Insert(ctx, &storage.Record{Address: "lock", Kind: storage.KindClaim, Data: []byte{1}})
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}
