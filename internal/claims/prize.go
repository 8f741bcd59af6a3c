package claims

import (
	"context"
	"errors"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/storage"
)

// prizeTotalWeight is the sum of every category weight.
const prizeTotalWeight = 100

// RecordWinner assigns category of an open prize distribution to wallet.
func RecordWinner(ctx context.Context, a *ledger.Accounts, address string, category domain.PrizeCategory, wallet string, metric uint64) (*domain.PrizeWinner, error) {
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if wallet == "" {
		return nil, ErrInvalidInput
	}
	d, err := LoadDistribution(ctx, a, address)
	if err != nil {
		return nil, err
	}
	if d.Kind != domain.DistributionPrize {
		return nil, ErrInvalidKind
	}
	if d.Sealed {
		return nil, ErrDistributionSealed
	}

	w := &domain.PrizeWinner{
		Distribution: address,
		Category:     category,
		Wallet:       wallet,
		MetricValue:  metric,
		RecordedAt:   a.Now(),
	}
	if err := a.InsertWinner(ctx, w); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrWinnerRecorded
		}
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:         domain.EventWinnerRecorded,
		Distribution: address,
		Actor:        wallet,
		Amount:       metric,
		Status:       category.String(),
	})
	return w, nil
}

// PrizeWeight returns the summed category percentages wallet won in the
// distribution at address.
func PrizeWeight(ctx context.Context, a *ledger.Accounts, address, wallet string) (uint64, error) {
	var weight uint64
	for _, c := range domain.PrizeCategories {
		w, err := a.Winner(ctx, address, c)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if w.Wallet == wallet {
			weight += c.Weight()
		}
	}
	return weight, nil
}

// ClaimPrize pays wallet the categories it won in one claim.
func ClaimPrize(ctx context.Context, a *ledger.Accounts, address, wallet string) (*domain.ClaimRecord, error) {
	d, err := LoadDistribution(ctx, a, address)
	if err != nil {
		return nil, err
	}
	if d.Kind != domain.DistributionPrize {
		return nil, ErrInvalidKind
	}
	weight, err := PrizeWeight(ctx, a, address, wallet)
	if err != nil {
		return nil, err
	}
	if weight == 0 {
		return nil, ErrNotWinner
	}
	return ClaimTx(ctx, a, address, wallet, weight, prizeTotalWeight)
}
