// Package ledger gives typed access to the addressed records of a
// storage.Ledger and moves balances between them.
package ledger

import (
	"context"
	"errors"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/wide"
)

// Accounts is the typed view of one atomic unit. It is only valid inside
// the unit that created it.
type Accounts struct {
	tx     storage.Tx
	now    int64
	events []*domain.Event
}

// NewAccounts wraps tx. now is the unit's timestamp in unix seconds.
func NewAccounts(tx storage.Tx, now int64) *Accounts {
	return &Accounts{tx: tx, now: now}
}

// Now returns the unit's timestamp in unix seconds.
func (a *Accounts) Now() int64 { return a.now }

// Emit queues an event for publication after the unit commits.
func (a *Accounts) Emit(e *domain.Event) {
	if e.Timestamp == 0 {
		e.Timestamp = a.now
	}
	a.events = append(a.events, e)
}

// Events returns the queued events.
func (a *Accounts) Events() []*domain.Event { return a.events }

func get[T any](ctx context.Context, tx storage.Tx, kind storage.RecordKind, address string) (*T, error) {
	r, err := tx.Get(ctx, kind, address)
	if err != nil {
		return nil, err
	}
	return decode[T](r.Data)
}

func insert(ctx context.Context, tx storage.Tx, kind storage.RecordKind, address string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return tx.Insert(ctx, &storage.Record{Address: address, Kind: kind, Data: data})
}

func update(ctx context.Context, tx storage.Tx, kind storage.RecordKind, address string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return tx.Update(ctx, &storage.Record{Address: address, Kind: kind, Data: data})
}

// Pool returns the swap pool for mint. Returns storage.ErrNotFound if absent.
func (a *Accounts) Pool(ctx context.Context, mint string) (*domain.SwapPool, error) {
	return get[domain.SwapPool](ctx, a.tx, storage.KindPool, idhash.PoolAddress(mint))
}

// InsertPool creates the pool record. Returns storage.ErrDuplicateKey if it exists.
func (a *Accounts) InsertPool(ctx context.Context, p *domain.SwapPool) error {
	return insert(ctx, a.tx, storage.KindPool, idhash.PoolAddress(p.Mint), p)
}

// UpdatePool replaces the pool record.
func (a *Accounts) UpdatePool(ctx context.Context, p *domain.SwapPool) error {
	return update(ctx, a.tx, storage.KindPool, idhash.PoolAddress(p.Mint), p)
}

// Tracker returns the lifecycle tracker for mint.
func (a *Accounts) Tracker(ctx context.Context, mint string) (*domain.LifecycleTracker, error) {
	return get[domain.LifecycleTracker](ctx, a.tx, storage.KindTracker, idhash.TrackerAddress(mint))
}

// InsertTracker creates the tracker record.
func (a *Accounts) InsertTracker(ctx context.Context, t *domain.LifecycleTracker) error {
	return insert(ctx, a.tx, storage.KindTracker, idhash.TrackerAddress(t.Mint), t)
}

// UpdateTracker replaces the tracker record.
func (a *Accounts) UpdateTracker(ctx context.Context, t *domain.LifecycleTracker) error {
	return update(ctx, a.tx, storage.KindTracker, idhash.TrackerAddress(t.Mint), t)
}

// Vault returns the liquidity vault for mint.
func (a *Accounts) Vault(ctx context.Context, mint string) (*domain.LiquidityVault, error) {
	return get[domain.LiquidityVault](ctx, a.tx, storage.KindVault, idhash.VaultAddress(mint))
}

// InsertVault creates the vault record.
func (a *Accounts) InsertVault(ctx context.Context, v *domain.LiquidityVault) error {
	return insert(ctx, a.tx, storage.KindVault, idhash.VaultAddress(v.Mint), v)
}

// UpdateVault replaces the vault record.
func (a *Accounts) UpdateVault(ctx context.Context, v *domain.LiquidityVault) error {
	return update(ctx, a.tx, storage.KindVault, idhash.VaultAddress(v.Mint), v)
}

// Distribution returns the distribution at address.
func (a *Accounts) Distribution(ctx context.Context, address string) (*domain.Distribution, error) {
	return get[domain.Distribution](ctx, a.tx, storage.KindDistribution, address)
}

// InsertDistribution creates a distribution at its derived address and
// returns that address.
func (a *Accounts) InsertDistribution(ctx context.Context, d *domain.Distribution) (string, error) {
	address := idhash.DistributionAddress(d.Kind, d.Scope)
	if err := insert(ctx, a.tx, storage.KindDistribution, address, d); err != nil {
		return "", err
	}
	return address, nil
}

// UpdateDistribution replaces the distribution at address.
func (a *Accounts) UpdateDistribution(ctx context.Context, address string, d *domain.Distribution) error {
	return update(ctx, a.tx, storage.KindDistribution, address, d)
}

// Claim returns claimant's claim record in distribution.
func (a *Accounts) Claim(ctx context.Context, distribution, claimant string) (*domain.ClaimRecord, error) {
	return get[domain.ClaimRecord](ctx, a.tx, storage.KindClaim, idhash.ClaimAddress(distribution, claimant))
}

// InsertClaim creates the claim record. Its creation is the exactly-once
// lock: a second insert fails with storage.ErrDuplicateKey.
func (a *Accounts) InsertClaim(ctx context.Context, c *domain.ClaimRecord) error {
	return insert(ctx, a.tx, storage.KindClaim, idhash.ClaimAddress(c.Distribution, c.Claimant), c)
}

// Winner returns the winner record of a prize category.
func (a *Accounts) Winner(ctx context.Context, distribution string, category domain.PrizeCategory) (*domain.PrizeWinner, error) {
	return get[domain.PrizeWinner](ctx, a.tx, storage.KindWinner, idhash.WinnerAddress(distribution, category))
}

// InsertWinner creates a winner record.
func (a *Accounts) InsertWinner(ctx context.Context, w *domain.PrizeWinner) error {
	return insert(ctx, a.tx, storage.KindWinner, idhash.WinnerAddress(w.Distribution, w.Category), w)
}

// Balance returns owner's balance of asset, zero if none was ever credited.
func (a *Accounts) Balance(ctx context.Context, owner, asset string) (uint64, error) {
	b, err := a.balance(ctx, owner, asset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return b.Amount, nil
}

func (a *Accounts) balance(ctx context.Context, owner, asset string) (*domain.Balance, error) {
	return get[domain.Balance](ctx, a.tx, storage.KindBalance, idhash.BalanceAddress(owner, asset))
}

// Credit adds amount to owner's balance of asset, creating it if needed.
func (a *Accounts) Credit(ctx context.Context, owner, asset string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	address := idhash.BalanceAddress(owner, asset)

	b, err := a.balance(ctx, owner, asset)
	if errors.Is(err, storage.ErrNotFound) {
		err = insert(ctx, a.tx, storage.KindBalance, address, &domain.Balance{Owner: owner, Asset: asset, Amount: amount})
		if errors.Is(err, storage.ErrDuplicateKey) {
			// A concurrent unit created the balance after our read.
			return storage.ErrConflict
		}
		return err
	}
	if err != nil {
		return err
	}

	sum, err := wide.Add(b.Amount, amount)
	if err != nil {
		return err
	}
	b.Amount = sum
	return update(ctx, a.tx, storage.KindBalance, address, b)
}

// Debit removes amount from owner's balance of asset.
// Returns ErrInsufficientFunds if the balance is smaller than amount.
func (a *Accounts) Debit(ctx context.Context, owner, asset string, amount uint64) error {
	if amount == 0 {
		return nil
	}

	b, err := a.balance(ctx, owner, asset)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	if b.Amount < amount {
		return ErrInsufficientFunds
	}

	b.Amount -= amount
	return update(ctx, a.tx, storage.KindBalance, idhash.BalanceAddress(owner, asset), b)
}

// Transfer moves amount of asset from one owner to another.
func (a *Accounts) Transfer(ctx context.Context, from, to, asset string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := a.Debit(ctx, from, asset, amount); err != nil {
		return err
	}
	return a.Credit(ctx, to, asset, amount)
}

// Mint creates amount of asset in to's balance.
func (a *Accounts) Mint(ctx context.Context, to, asset string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return a.Credit(ctx, to, asset, amount)
}

// Burn destroys amount of asset from owner's balance.
func (a *Accounts) Burn(ctx context.Context, from, asset string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return a.Debit(ctx, from, asset, amount)
}
