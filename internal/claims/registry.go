// Package claims implements the proportional, exactly-once claim registry.
//
// A distribution pools one asset at its own address. While open it can be
// funded; once sealed its total is fixed and each claimant may take
// weight*total/totalWeight exactly once. The claim record inserted in the
// same unit as the payout is the only lock.
package claims

import (
	"context"
	"errors"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/wide"
)

// LoadDistribution returns the distribution at address, or ErrDistributionNotFound.
func LoadDistribution(ctx context.Context, a *ledger.Accounts, address string) (*domain.Distribution, error) {
	d, err := a.Distribution(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDistributionNotFound
	}
	return d, err
}

// OpenDistribution creates an empty, open distribution of asset and returns
// its address.
func OpenDistribution(ctx context.Context, a *ledger.Accounts, kind domain.DistributionKind, scope, asset string) (string, *domain.Distribution, error) {
	if !kind.IsValid() {
		return "", nil, ErrInvalidKind
	}
	if scope == "" || asset == "" {
		return "", nil, ErrInvalidInput
	}

	d := &domain.Distribution{
		Kind:      kind,
		Scope:     scope,
		Asset:     asset,
		CreatedAt: a.Now(),
	}
	address, err := a.InsertDistribution(ctx, d)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return "", nil, ErrDistributionExists
		}
		return "", nil, err
	}

	a.Emit(&domain.Event{
		Kind:         domain.EventDistributionOpened,
		Distribution: address,
		Status:       kind.String(),
	})
	return address, d, nil
}

// Fund moves amount of the distribution's asset from funder into its pool.
func Fund(ctx context.Context, a *ledger.Accounts, address, funder string, amount uint64) (*domain.Distribution, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	d, err := LoadDistribution(ctx, a, address)
	if err != nil {
		return nil, err
	}
	if d.Sealed {
		return nil, ErrDistributionSealed
	}

	if d.Total, err = wide.Add(d.Total, amount); err != nil {
		return nil, err
	}
	if err := a.Transfer(ctx, funder, address, d.Asset, amount); err != nil {
		return nil, err
	}
	if err := a.UpdateDistribution(ctx, address, d); err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:         domain.EventDistributionFunded,
		Distribution: address,
		Actor:        funder,
		Amount:       amount,
	})
	return d, nil
}

// Seal fixes the distribution's total and opens it for claims.
func Seal(ctx context.Context, a *ledger.Accounts, address string) (*domain.Distribution, error) {
	d, err := LoadDistribution(ctx, a, address)
	if err != nil {
		return nil, err
	}
	if d.Sealed {
		return nil, ErrDistributionSealed
	}

	d.Sealed = true
	d.SealedAt = a.Now()
	if err := a.UpdateDistribution(ctx, address, d); err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:         domain.EventDistributionSealed,
		Distribution: address,
		Amount:       d.Total,
	})
	return d, nil
}

// Share returns floor(weight*total/totalWeight) with a wide intermediate.
func Share(weight, totalWeight, total uint64) (uint64, error) {
	if totalWeight == 0 {
		return 0, wide.ErrDivisionByZero
	}
	if weight == 0 || weight > totalWeight {
		return 0, ErrInvalidWeight
	}
	share, err := wide.MulDiv(weight, total, totalWeight)
	if err != nil {
		return 0, err
	}
	if share == 0 {
		return 0, ErrShareTooSmall
	}
	return share, nil
}

// ClaimTx pays claimant its proportional share of a sealed distribution
// and records the claim. A second claim by the same claimant fails with
// ErrAlreadyClaimed and moves nothing.
func ClaimTx(ctx context.Context, a *ledger.Accounts, address, claimant string, weight, totalWeight uint64) (*domain.ClaimRecord, error) {
	if claimant == "" {
		return nil, ErrInvalidInput
	}
	d, err := LoadDistribution(ctx, a, address)
	if err != nil {
		return nil, err
	}
	if !d.Sealed {
		return nil, ErrDistributionOpen
	}

	// Fail fast on a visible record; the insert below is what decides.
	if _, err := a.Claim(ctx, address, claimant); err == nil {
		return nil, ErrAlreadyClaimed
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	share, err := Share(weight, totalWeight, d.Total)
	if err != nil {
		return nil, err
	}
	if share > d.Remaining() {
		return nil, ErrPoolExhausted
	}

	rec := &domain.ClaimRecord{
		Distribution: address,
		Claimant:     claimant,
		Claimed:      true,
		Amount:       share,
		Weight:       weight,
		TotalWeight:  totalWeight,
		Timestamp:    a.Now(),
	}
	if err := a.InsertClaim(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	if err := a.Transfer(ctx, address, claimant, d.Asset, share); err != nil {
		return nil, err
	}
	d.Claimed += share
	d.ClaimCount++
	if err := a.UpdateDistribution(ctx, address, d); err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:         domain.EventClaim,
		Distribution: address,
		Actor:        claimant,
		Amount:       share,
		Status:       d.Kind.String(),
	})
	return rec, nil
}
