package custody

import (
	"context"

	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/observability"
)

// Options configures a Service.
type Options struct {
	Runner *ledger.Runner
	// PlatformCutPercent is the treasury's share of liquidated liquidity.
	// 0 uses DefaultPlatformCutPercent.
	PlatformCutPercent uint64
	Logger             *zap.Logger
}

// Service runs custody operations as atomic units.
type Service struct {
	runner     *ledger.Runner
	cutPercent uint64
	logger     *zap.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		runner:     opts.Runner,
		cutPercent: opts.PlatformCutPercent,
		logger:     opts.Logger,
	}
	if s.cutPercent == 0 {
		s.cutPercent = DefaultPlatformCutPercent
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// PlatformCutPercent returns the effective treasury share.
func (s *Service) PlatformCutPercent() uint64 { return s.cutPercent }

// Initialize creates the vault for mint.
func (s *Service) Initialize(ctx context.Context, mint, treasury string) (*domain.LiquidityVault, error) {
	var v *domain.LiquidityVault
	err := s.runner.Run(ctx, "custody_initialize", func(a *ledger.Accounts) error {
		var err error
		v, err = InitializeVault(ctx, a, mint, treasury)
		return err
	})
	return v, err
}

// Deposit locks LP in the vault.
func (s *Service) Deposit(ctx context.Context, mint, depositor string, lpAmount uint64) (*domain.LiquidityVault, error) {
	var v *domain.LiquidityVault
	err := s.runner.Run(ctx, "custody_deposit", func(a *ledger.Accounts) error {
		var err error
		v, err = Deposit(ctx, a, mint, depositor, lpAmount)
		return err
	})
	return v, err
}

// TriggerLiquidation liquidates a Dead token's vault.
func (s *Service) TriggerLiquidation(ctx context.Context, mint string) (*Liquidation, error) {
	var res *Liquidation
	err := s.runner.Run(ctx, "custody_liquidate", func(a *ledger.Accounts) error {
		var err error
		res, err = TriggerLiquidation(ctx, a, mint, s.cutPercent)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logLiquidation(res)
	return res, nil
}

// ClaimHolderShare pays a holder's share of the liquidated pools.
func (s *Service) ClaimHolderShare(ctx context.Context, mint, holder string, balanceAtDeath, supplyAtDeath uint64) (*HolderClaim, error) {
	var claim *HolderClaim
	err := s.runner.Run(ctx, "custody_claim", func(a *ledger.Accounts) error {
		var err error
		claim, err = ClaimHolderShare(ctx, a, mint, holder, balanceAtDeath, supplyAtDeath)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.RecordClaim(domain.DistributionLiquidation.String(), claim.QuoteAmount())
	s.logger.Info("holder share claimed",
		zap.String("mint", mint),
		zap.String("holder", holder),
		zap.Uint64("amount", claim.QuoteAmount()),
		zap.Uint64("token_amount", claim.TokenAmount()),
	)
	return claim, nil
}

// Vault returns a snapshot of mint's vault.
func (s *Service) Vault(ctx context.Context, mint string) (*domain.LiquidityVault, error) {
	var v *domain.LiquidityVault
	err := s.runner.View(ctx, func(a *ledger.Accounts) error {
		var err error
		v, err = LoadVault(ctx, a, mint)
		return err
	})
	return v, err
}

func (s *Service) logLiquidation(res *Liquidation) {
	observability.RecordLiquidation(res.ReleasedQuote, res.PlatformFee, res.HolderPool)
	s.logger.Info("vault liquidated",
		zap.String("mint", res.Mint),
		zap.Uint64("lp_burned", res.LPBurned),
		zap.Uint64("released_quote", res.ReleasedQuote),
		zap.Uint64("platform_fee", res.PlatformFee),
		zap.Uint64("holder_pool", res.HolderPool),
		zap.Uint64("holder_token_pool", res.HolderTokenPool),
		zap.String("distribution", res.Distribution),
	)
}
