// Package lifecycle implements the per-token Active → Warning → Dead state
// machine that gates trading and liquidation.
package lifecycle

import (
	"context"
	"errors"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/wide"
)

// LoadTracker returns the tracker for mint, or ErrTrackerNotFound.
func LoadTracker(ctx context.Context, a *ledger.Accounts, mint string) (*domain.LifecycleTracker, error) {
	t, err := a.Tracker(ctx, mint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTrackerNotFound
	}
	return t, err
}

// StatusOf returns the current status of mint's tracker. It never writes.
func StatusOf(ctx context.Context, a *ledger.Accounts, mint string) (domain.Status, error) {
	t, err := LoadTracker(ctx, a, mint)
	if err != nil {
		return 0, err
	}
	return t.Status, nil
}

// InitializeTracker creates an Active tracker launched at the unit's time.
// updater is the only identity UpdateStats accepts.
func InitializeTracker(ctx context.Context, a *ledger.Accounts, mint, updater string) (*domain.LifecycleTracker, error) {
	if mint == "" || updater == "" {
		return nil, storage.ErrInvalidInput
	}

	t := &domain.LifecycleTracker{
		Mint:          mint,
		Updater:       updater,
		LaunchTime:    a.Now(),
		LastTradeTime: a.Now(),
		Status:        domain.StatusActive,
	}
	if err := a.InsertTracker(ctx, t); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrTrackerExists
		}
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:   domain.EventTrackerInitialized,
		Mint:   mint,
		Actor:  updater,
		Status: t.Status.String(),
	})
	return t, nil
}

// RecordStats accumulates a trade's quote volume and records its price.
func RecordStats(ctx context.Context, a *ledger.Accounts, mint, caller string, volumeDelta, price uint64) (*domain.LifecycleTracker, error) {
	t, err := LoadTracker(ctx, a, mint)
	if err != nil {
		return nil, err
	}
	if caller != t.Updater {
		return nil, ErrUnauthorized
	}
	if t.Status == domain.StatusDead {
		return nil, ErrTokenIsDead
	}

	if t.VolumeWindow, err = wide.Add(t.VolumeWindow, volumeDelta); err != nil {
		return nil, err
	}
	t.CurrentPrice = price
	if price > t.ATHPrice {
		t.ATHPrice = price
	}
	t.LastTradeTime = a.Now()

	if err := a.UpdateTracker(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Evaluate applies rules to mint's tracker at the unit's time and returns
// the previous and resulting status. A tracker that is already Dead is left
// untouched.
func Evaluate(ctx context.Context, a *ledger.Accounts, mint string, rules Rules) (from, to domain.Status, err error) {
	t, err := LoadTracker(ctx, a, mint)
	if err != nil {
		return 0, 0, err
	}
	from = t.Status
	if from.Terminal() {
		return from, from, nil
	}

	to, err = from.Transition(rules.withDefaults().Next(t, a.Now()))
	if err != nil {
		return from, from, err
	}
	if to == from {
		return from, to, nil
	}

	t.Status = to
	if to == domain.StatusDead {
		t.DeathSnapshotTime = a.Now()
	}
	if err := a.UpdateTracker(ctx, t); err != nil {
		return from, from, err
	}

	a.Emit(&domain.Event{
		Kind:   domain.EventStatusChanged,
		Mint:   mint,
		Status: to.String(),
		Amount: t.VolumeWindow,
	})
	return from, to, nil
}

// CheckTradeDirection rejects buys of a dead token. Sells always pass.
func CheckTradeDirection(ctx context.Context, a *ledger.Accounts, mint string, isBuy bool) error {
	status, err := StatusOf(ctx, a, mint)
	if err != nil {
		return err
	}
	if status == domain.StatusDead && isBuy {
		return ErrBuysDisabledForDeadToken
	}
	return nil
}
