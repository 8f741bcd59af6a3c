package swap

import (
	"context"

	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/observability"
)

// DefaultFeeRateBps is the swap fee: 30 bps = 0.30%.
const DefaultFeeRateBps uint16 = 30

// Options configures a Service.
type Options struct {
	Runner     *ledger.Runner
	FeeRateBps uint16 // fee for new pools; 0 uses DefaultFeeRateBps
	Logger     *zap.Logger
}

// Service runs pool operations as atomic units.
type Service struct {
	runner     *ledger.Runner
	feeRateBps uint16
	logger     *zap.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		runner:     opts.Runner,
		feeRateBps: opts.FeeRateBps,
		logger:     opts.Logger,
	}
	if s.feeRateBps == 0 {
		s.feeRateBps = DefaultFeeRateBps
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// FeeRateBps returns the fee new pools are created with.
func (s *Service) FeeRateBps() uint16 { return s.feeRateBps }

// Initialize creates a pool with its bootstrap deposit.
func (s *Service) Initialize(ctx context.Context, p InitParams) (*domain.SwapPool, error) {
	var pool *domain.SwapPool
	err := s.runner.Run(ctx, "swap_initialize", func(a *ledger.Accounts) error {
		var err error
		pool, err = InitializePool(ctx, a, p, s.feeRateBps)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pool initialized",
		zap.String("mint", p.Mint),
		zap.Uint64("token_reserve", pool.TokenReserve),
		zap.Uint64("quote_reserve", pool.QuoteReserve),
		zap.Uint64("lp_supply", pool.LPSupply),
	)
	return pool, nil
}

// Swap executes a swap.
func (s *Service) Swap(ctx context.Context, p SwapParams) (*SwapResult, error) {
	var res *SwapResult
	err := s.runner.Run(ctx, "swap", func(a *ledger.Accounts) error {
		var err error
		res, err = ExecuteSwap(ctx, a, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.RecordSwap(res.Direction.String(), res.QuoteVolume())
	s.logger.Debug("swap executed",
		zap.String("mint", p.Mint),
		zap.String("side", res.Direction.String()),
		zap.Uint64("amount_in", res.AmountIn),
		zap.Uint64("amount_out", res.AmountOut),
	)
	return res, nil
}

// AddLiquidity deposits into an active pool and returns the LP minted.
func (s *Service) AddLiquidity(ctx context.Context, p LiquidityParams) (uint64, error) {
	var lp uint64
	err := s.runner.Run(ctx, "swap_add_liquidity", func(a *ledger.Accounts) error {
		var err error
		lp, err = ProvideLiquidity(ctx, a, p)
		return err
	})
	if err != nil {
		return 0, err
	}
	observability.RecordLiquidityChange("add")
	return lp, nil
}

// RemoveLiquidity redeems LP for the reserves backing it.
func (s *Service) RemoveLiquidity(ctx context.Context, p WithdrawParams) (tokenOut, quoteOut uint64, err error) {
	err = s.runner.Run(ctx, "swap_remove_liquidity", func(a *ledger.Accounts) error {
		var err error
		tokenOut, quoteOut, err = WithdrawLiquidity(ctx, a, p)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	observability.RecordLiquidityChange("remove")
	return tokenOut, quoteOut, nil
}

// Disable deactivates the pool on behalf of authority.
func (s *Service) Disable(ctx context.Context, mint, authority string) error {
	err := s.runner.Run(ctx, "swap_disable", func(a *ledger.Accounts) error {
		return DisablePool(ctx, a, mint, authority)
	})
	if err != nil {
		return err
	}
	s.logger.Info("pool disabled", zap.String("mint", mint))
	return nil
}

// Pool returns a snapshot of the pool.
func (s *Service) Pool(ctx context.Context, mint string) (*domain.SwapPool, error) {
	var pool *domain.SwapPool
	err := s.runner.View(ctx, func(a *ledger.Accounts) error {
		var err error
		pool, err = LoadPool(ctx, a, mint)
		return err
	})
	return pool, err
}

// Price returns the pool price in 1e9 fixed point, 0 for an empty token
// reserve.
func (s *Service) Price(ctx context.Context, mint string) (uint64, error) {
	pool, err := s.Pool(ctx, mint)
	if err != nil {
		return 0, err
	}
	return Price(pool.TokenReserve, pool.QuoteReserve)
}

// Quote previews the output of a swap.
func (s *Service) Quote(ctx context.Context, mint string, amountIn uint64, d domain.Direction) (uint64, error) {
	pool, err := s.Pool(ctx, mint)
	if err != nil {
		return 0, err
	}
	return PreviewSwap(pool, amountIn, d)
}
