// Package platform composes the pool, lifecycle, custody and claims
// components over one ledger. It is the orchestration layer: it launches
// tokens, reports every trade to the lifecycle tracker and sweeps trackers
// so dead tokens are liquidated.
package platform

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"launchpad-ledger/internal/claims"
	"launchpad-ledger/internal/custody"
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/lifecycle"
	"launchpad-ledger/internal/observability"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/swap"
)

// Options configures a Platform.
type Options struct {
	Runner *ledger.Runner
	// Authority is the identity that reports trade stats.
	Authority string
	// Treasury receives the platform cut at liquidation.
	Treasury           string
	FeeRateBps         uint16
	Rules              lifecycle.Rules
	PlatformCutPercent uint64
	Logger             *zap.Logger
}

// Platform is the composed ledger service.
type Platform struct {
	runner    *ledger.Runner
	authority string
	treasury  string
	logger    *zap.Logger

	pools     *swap.Service
	lifecycle *lifecycle.Service
	custody   *custody.Service
	claims    *claims.Service
}

// New creates a Platform and its component services.
func New(opts Options) *Platform {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Platform{
		runner:    opts.Runner,
		authority: opts.Authority,
		treasury:  opts.Treasury,
		logger:    logger,
		pools: swap.New(swap.Options{
			Runner:     opts.Runner,
			FeeRateBps: opts.FeeRateBps,
			Logger:     logger.Named("swap"),
		}),
		lifecycle: lifecycle.New(lifecycle.Options{
			Runner: opts.Runner,
			Rules:  opts.Rules,
			Logger: logger.Named("lifecycle"),
		}),
		custody: custody.New(custody.Options{
			Runner:             opts.Runner,
			PlatformCutPercent: opts.PlatformCutPercent,
			Logger:             logger.Named("custody"),
		}),
		claims: claims.New(claims.Options{
			Runner: opts.Runner,
			Logger: logger.Named("claims"),
		}),
	}
}

// Pools returns the swap pool service.
func (p *Platform) Pools() *swap.Service { return p.pools }

// Lifecycle returns the lifecycle service.
func (p *Platform) Lifecycle() *lifecycle.Service { return p.lifecycle }

// Custody returns the custody service.
func (p *Platform) Custody() *custody.Service { return p.custody }

// Claims returns the claims registry service.
func (p *Platform) Claims() *claims.Service { return p.claims }

// Runner returns the unit runner.
func (p *Platform) Runner() *ledger.Runner { return p.runner }

// Authority returns the stats-reporting identity.
func (p *Platform) Authority() string { return p.authority }

// LaunchParams describes a token launch.
type LaunchParams struct {
	Mint        string
	Creator     string
	TokenAmount uint64
	QuoteAmount uint64
}

// Launch is the state created by a launch.
type Launch struct {
	Pool    *domain.SwapPool
	Tracker *domain.LifecycleTracker
	Vault   *domain.LiquidityVault
}

// Launch creates the tracker, the pool with its bootstrap liquidity and
// the vault, and locks the bootstrap LP in the vault, all in one unit.
func (p *Platform) Launch(ctx context.Context, params LaunchParams) (*Launch, error) {
	var out Launch
	err := p.runner.Run(ctx, "platform_launch", func(a *ledger.Accounts) error {
		var err error
		if out.Tracker, err = lifecycle.InitializeTracker(ctx, a, params.Mint, p.authority); err != nil {
			return err
		}
		out.Pool, err = swap.InitializePool(ctx, a, swap.InitParams{
			Mint:             params.Mint,
			Creator:          params.Creator,
			CustodyAuthority: idhash.VaultAddress(params.Mint),
			TokenAmount:      params.TokenAmount,
			QuoteAmount:      params.QuoteAmount,
		}, p.pools.FeeRateBps())
		if err != nil {
			return err
		}
		if _, err = custody.InitializeVault(ctx, a, params.Mint, p.treasury); err != nil {
			return err
		}
		out.Vault, err = custody.Deposit(ctx, a, params.Mint, params.Creator, out.Pool.LPSupply)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("token launched",
		zap.String("mint", params.Mint),
		zap.String("creator", params.Creator),
		zap.Uint64("token_reserve", out.Pool.TokenReserve),
		zap.Uint64("quote_reserve", out.Pool.QuoteReserve),
		zap.Uint64("lp_locked", out.Vault.TotalDeposited),
	)
	return &out, nil
}

// Trade checks the trade direction against the token's status, executes
// the swap and reports its quote volume and resulting price to the
// tracker, all in one unit. Sells of a dead token are not reported.
func (p *Platform) Trade(ctx context.Context, params swap.SwapParams) (*swap.SwapResult, error) {
	var res *swap.SwapResult
	err := p.runner.Run(ctx, "platform_trade", func(a *ledger.Accounts) error {
		status, err := lifecycle.StatusOf(ctx, a, params.Mint)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckTradeDirection(ctx, a, params.Mint, params.Direction.IsBuy()); err != nil {
			return err
		}
		if res, err = swap.ExecuteSwap(ctx, a, params); err != nil {
			return err
		}
		if status == domain.StatusDead {
			return nil
		}
		_, err = lifecycle.RecordStats(ctx, a, params.Mint, p.authority, res.QuoteVolume(), res.PriceAfter)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.RecordSwap(res.Direction.String(), res.QuoteVolume())
	return res, nil
}

// Mints returns every launched token.
func (p *Platform) Mints(ctx context.Context) ([]string, error) {
	trackers, err := p.runner.Trackers(ctx)
	if err != nil {
		return nil, err
	}
	mints := make([]string, len(trackers))
	for i, t := range trackers {
		mints[i] = t.Mint
	}
	return mints, nil
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Checked     int
	Transitions int
	Liquidated  []string
	Failed      map[string]error

	// Liquidations holds the outcome for each mint in Liquidated.
	Liquidations []*custody.Liquidation
}

// Sweep evaluates every tracker and liquidates the vault of each Dead
// token that has not been liquidated yet. Failures are collected per mint
// and do not stop the sweep.
func (p *Platform) Sweep(ctx context.Context) (*SweepReport, error) {
	trackers, err := p.runner.Trackers(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Failed: make(map[string]error)}
	counts := map[string]int{}
	for _, t := range trackers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		status, err := p.lifecycle.CheckAndFlagDead(ctx, t.Mint)
		if err != nil {
			report.Failed[t.Mint] = err
			counts[t.Status.String()]++
			continue
		}
		counts[status.String()]++
		if status != t.Status {
			report.Transitions++
		}
		if status != domain.StatusDead {
			continue
		}

		res, err := p.liquidate(ctx, t.Mint)
		if err != nil {
			report.Failed[t.Mint] = err
			continue
		}
		if res != nil {
			report.Liquidated = append(report.Liquidated, t.Mint)
			report.Liquidations = append(report.Liquidations, res)
		}
	}

	observability.UpdateTrackedTokens(counts)
	observability.RecordSweep(p.runner.Now())
	if len(report.Failed) > 0 {
		p.logger.Warn("sweep finished with failures",
			zap.Int("checked", report.Checked),
			zap.Int("failed", len(report.Failed)),
		)
	}
	return report, nil
}

// liquidate triggers liquidation unless it already happened or the vault
// holds nothing, in which case it returns nil.
func (p *Platform) liquidate(ctx context.Context, mint string) (*custody.Liquidation, error) {
	v, err := p.custody.Vault(ctx, mint)
	if errors.Is(err, custody.ErrVaultNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if v.Liquidated {
		return nil, nil
	}

	res, err := p.custody.TriggerLiquidation(ctx, mint)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, custody.ErrAlreadyPrepared), errors.Is(err, custody.ErrNothingToLiquidate):
		return nil, nil
	default:
		return nil, err
	}
}

// Faucet mints amount of asset to owner. It exists for simulations and
// local deployments; there is no other way to create balances.
func (p *Platform) Faucet(ctx context.Context, owner, asset string, amount uint64) error {
	if owner == "" || asset == "" {
		return storage.ErrInvalidInput
	}
	return p.runner.Run(ctx, "platform_faucet", func(a *ledger.Accounts) error {
		return a.Mint(ctx, owner, asset, amount)
	})
}

// Balance returns owner's balance of asset.
func (p *Platform) Balance(ctx context.Context, owner, asset string) (uint64, error) {
	var bal uint64
	err := p.runner.View(ctx, func(a *ledger.Accounts) error {
		var err error
		bal, err = a.Balance(ctx, owner, asset)
		return err
	})
	return bal, err
}
