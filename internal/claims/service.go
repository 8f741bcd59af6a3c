package claims

import (
	"context"
	"time"

	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/observability"
)

// DayScope returns the UTC day id used as the scope of daily distributions.
func DayScope(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

// Options configures a Service.
type Options struct {
	Runner *ledger.Runner
	Logger *zap.Logger
}

// Service runs registry operations as atomic units.
type Service struct {
	runner *ledger.Runner
	logger *zap.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{runner: opts.Runner, logger: opts.Logger}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Address returns the address of the distribution of kind for scope.
func (s *Service) Address(kind domain.DistributionKind, scope string) string {
	return idhash.DistributionAddress(kind, scope)
}

// Open creates an open distribution and returns its address.
func (s *Service) Open(ctx context.Context, kind domain.DistributionKind, scope, asset string) (string, error) {
	var address string
	err := s.runner.Run(ctx, "claims_open", func(a *ledger.Accounts) error {
		var err error
		address, _, err = OpenDistribution(ctx, a, kind, scope, asset)
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("distribution opened",
		zap.String("distribution", address),
		zap.String("kind", kind.String()),
		zap.String("scope", scope),
	)
	return address, nil
}

// Fund adds amount from funder to an open distribution.
func (s *Service) Fund(ctx context.Context, address, funder string, amount uint64) (*domain.Distribution, error) {
	var d *domain.Distribution
	err := s.runner.Run(ctx, "claims_fund", func(a *ledger.Accounts) error {
		var err error
		d, err = Fund(ctx, a, address, funder, amount)
		return err
	})
	return d, err
}

// Seal fixes a distribution's total.
func (s *Service) Seal(ctx context.Context, address string) (*domain.Distribution, error) {
	var d *domain.Distribution
	err := s.runner.Run(ctx, "claims_seal", func(a *ledger.Accounts) error {
		var err error
		d, err = Seal(ctx, a, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("distribution sealed", zap.String("distribution", address), zap.Uint64("total", d.Total))
	return d, nil
}

// Claim pays claimant weight/totalWeight of the distribution's total once.
func (s *Service) Claim(ctx context.Context, address, claimant string, weight, totalWeight uint64) (*domain.ClaimRecord, error) {
	var (
		rec  *domain.ClaimRecord
		kind domain.DistributionKind
	)
	err := s.runner.Run(ctx, "claims_claim", func(a *ledger.Accounts) error {
		d, err := LoadDistribution(ctx, a, address)
		if err != nil {
			return err
		}
		kind = d.Kind
		rec, err = ClaimTx(ctx, a, address, claimant, weight, totalWeight)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordClaim(kind, rec)
	return rec, nil
}

// RecordWinner assigns a prize category to wallet.
func (s *Service) RecordWinner(ctx context.Context, address string, category domain.PrizeCategory, wallet string, metric uint64) (*domain.PrizeWinner, error) {
	var w *domain.PrizeWinner
	err := s.runner.Run(ctx, "claims_record_winner", func(a *ledger.Accounts) error {
		var err error
		w, err = RecordWinner(ctx, a, address, category, wallet, metric)
		return err
	})
	return w, err
}

// ClaimPrize pays wallet every category it won.
func (s *Service) ClaimPrize(ctx context.Context, address, wallet string) (*domain.ClaimRecord, error) {
	var rec *domain.ClaimRecord
	err := s.runner.Run(ctx, "claims_claim_prize", func(a *ledger.Accounts) error {
		var err error
		rec, err = ClaimPrize(ctx, a, address, wallet)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordClaim(domain.DistributionPrize, rec)
	return rec, nil
}

// Distribution returns a snapshot of the distribution at address.
func (s *Service) Distribution(ctx context.Context, address string) (*domain.Distribution, error) {
	var d *domain.Distribution
	err := s.runner.View(ctx, func(a *ledger.Accounts) error {
		var err error
		d, err = LoadDistribution(ctx, a, address)
		return err
	})
	return d, err
}

// ClaimRecord returns claimant's record in the distribution, or
// storage.ErrNotFound if it has not claimed.
func (s *Service) ClaimRecord(ctx context.Context, address, claimant string) (*domain.ClaimRecord, error) {
	var rec *domain.ClaimRecord
	err := s.runner.View(ctx, func(a *ledger.Accounts) error {
		var err error
		rec, err = a.Claim(ctx, address, claimant)
		return err
	})
	return rec, err
}

func (s *Service) recordClaim(kind domain.DistributionKind, rec *domain.ClaimRecord) {
	observability.RecordClaim(kind.String(), rec.Amount)
	s.logger.Info("claim paid",
		zap.String("distribution", rec.Distribution),
		zap.String("claimant", rec.Claimant),
		zap.Uint64("amount", rec.Amount),
	)
}
