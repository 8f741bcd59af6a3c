// Package swap implements the constant-product swap pool.
//
// Every exported function that takes a *ledger.Accounts runs inside the
// caller's atomic unit so other components can compose it with their own
// writes. The Service methods wrap each of them in a unit of their own.
package swap

import (
	"context"
	"errors"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/wide"
)

// InitParams describes a new pool and its bootstrap deposit.
type InitParams struct {
	Mint             string
	Creator          string // pays both bootstrap amounts
	CustodyAuthority string // only identity allowed to disable the pool
	TokenAmount      uint64
	QuoteAmount      uint64
	LPRecipient      string // receives the bootstrap LP; defaults to Creator
}

// SwapParams describes one swap.
type SwapParams struct {
	Mint         string
	Trader       string
	AmountIn     uint64
	MinAmountOut uint64
	Direction    domain.Direction
}

// SwapResult is the outcome of a swap.
type SwapResult struct {
	Direction  domain.Direction
	AmountIn   uint64
	AmountOut  uint64
	PriceAfter uint64 // 1e9 fixed point
}

// QuoteVolume returns the quote side of the swap.
func (r *SwapResult) QuoteVolume() uint64 {
	if r.Direction.IsBuy() {
		return r.AmountIn
	}
	return r.AmountOut
}

// LiquidityParams describes a deposit into an existing pool.
type LiquidityParams struct {
	Mint        string
	Provider    string
	TokenAmount uint64
	QuoteAmount uint64
	MinLP       uint64
}

// WithdrawParams describes an LP redemption.
type WithdrawParams struct {
	Mint     string
	Owner    string
	LPAmount uint64
	MinToken uint64
	MinQuote uint64
}

// LoadPool returns the pool for mint, or ErrPoolNotFound.
func LoadPool(ctx context.Context, a *ledger.Accounts, mint string) (*domain.SwapPool, error) {
	pool, err := a.Pool(ctx, mint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPoolNotFound
	}
	return pool, err
}

// InitializePool creates the pool for p.Mint, moves the bootstrap deposit
// from the creator into pool custody and mints floor(sqrt(token*quote)) LP.
func InitializePool(ctx context.Context, a *ledger.Accounts, p InitParams, feeRateBps uint16) (*domain.SwapPool, error) {
	if p.Mint == "" || p.Creator == "" {
		return nil, storage.ErrInvalidInput
	}
	if p.TokenAmount == 0 || p.QuoteAmount == 0 {
		return nil, ErrInvalidAmount
	}
	if uint64(feeRateBps) > wide.BpsDenominator {
		return nil, ErrInvalidFee
	}
	recipient := p.LPRecipient
	if recipient == "" {
		recipient = p.Creator
	}

	lp := InitialLP(p.TokenAmount, p.QuoteAmount)
	if lp == 0 {
		return nil, ErrZeroOutput
	}

	pool := &domain.SwapPool{
		Mint:             p.Mint,
		TokenReserve:     p.TokenAmount,
		QuoteReserve:     p.QuoteAmount,
		FeeRateBps:       feeRateBps,
		LPSupply:         lp,
		Active:           true,
		CustodyAuthority: p.CustodyAuthority,
		CreatedAt:        a.Now(),
	}
	if err := a.InsertPool(ctx, pool); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrPoolExists
		}
		return nil, err
	}

	custody := idhash.PoolAddress(p.Mint)
	if err := a.Transfer(ctx, p.Creator, custody, p.Mint, p.TokenAmount); err != nil {
		return nil, err
	}
	if err := a.Transfer(ctx, p.Creator, custody, domain.QuoteAsset, p.QuoteAmount); err != nil {
		return nil, err
	}
	if err := a.Mint(ctx, recipient, domain.LPAsset(p.Mint), lp); err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:      domain.EventPoolInitialized,
		Mint:      p.Mint,
		Actor:     p.Creator,
		AmountIn:  p.TokenAmount,
		Amount:    p.QuoteAmount,
		AmountOut: lp,
	})
	return pool, nil
}

// ExecuteSwap trades p.AmountIn against the pool.
func ExecuteSwap(ctx context.Context, a *ledger.Accounts, p SwapParams) (*SwapResult, error) {
	if p.AmountIn == 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := LoadPool(ctx, a, p.Mint)
	if err != nil {
		return nil, err
	}
	if !pool.Active {
		return nil, ErrPoolInactive
	}

	reserveIn, reserveOut := reserves(pool, p.Direction)
	out, err := AmountOut(p.AmountIn, reserveIn, reserveOut, pool.FeeRateBps)
	if err != nil {
		return nil, err
	}
	if out < p.MinAmountOut {
		return nil, ErrSlippageExceeded
	}
	if out >= reserveOut {
		return nil, ErrInsufficientLiquidity
	}
	if out == 0 {
		return nil, ErrZeroOutput
	}

	newIn, err := wide.Add(reserveIn, p.AmountIn)
	if err != nil {
		return nil, err
	}
	newOut := reserveOut - out
	if p.Direction.IsBuy() {
		pool.QuoteReserve, pool.TokenReserve = newIn, newOut
	} else {
		pool.TokenReserve, pool.QuoteReserve = newIn, newOut
	}
	if err := a.UpdatePool(ctx, pool); err != nil {
		return nil, err
	}

	custody := idhash.PoolAddress(p.Mint)
	assetIn, assetOut := assets(p.Mint, p.Direction)
	if err := a.Transfer(ctx, p.Trader, custody, assetIn, p.AmountIn); err != nil {
		return nil, err
	}
	if err := a.Transfer(ctx, custody, p.Trader, assetOut, out); err != nil {
		return nil, err
	}

	price, err := Price(pool.TokenReserve, pool.QuoteReserve)
	if err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:      domain.EventSwap,
		Mint:      p.Mint,
		Actor:     p.Trader,
		Side:      p.Direction.String(),
		AmountIn:  p.AmountIn,
		AmountOut: out,
		Price:     price,
	})
	return &SwapResult{
		Direction:  p.Direction,
		AmountIn:   p.AmountIn,
		AmountOut:  out,
		PriceAfter: price,
	}, nil
}

// ProvideLiquidity deposits both assets and mints LP to the provider.
func ProvideLiquidity(ctx context.Context, a *ledger.Accounts, p LiquidityParams) (uint64, error) {
	if p.TokenAmount == 0 || p.QuoteAmount == 0 {
		return 0, ErrInvalidAmount
	}
	pool, err := LoadPool(ctx, a, p.Mint)
	if err != nil {
		return 0, err
	}
	if !pool.Active {
		return 0, ErrPoolInactive
	}

	lp, err := LPForDeposit(p.TokenAmount, p.QuoteAmount, pool)
	if err != nil {
		return 0, err
	}
	if lp < p.MinLP {
		return 0, ErrSlippageExceeded
	}
	if lp == 0 {
		return 0, ErrZeroOutput
	}

	if pool.TokenReserve, err = wide.Add(pool.TokenReserve, p.TokenAmount); err != nil {
		return 0, err
	}
	if pool.QuoteReserve, err = wide.Add(pool.QuoteReserve, p.QuoteAmount); err != nil {
		return 0, err
	}
	if pool.LPSupply, err = wide.Add(pool.LPSupply, lp); err != nil {
		return 0, err
	}
	if err := a.UpdatePool(ctx, pool); err != nil {
		return 0, err
	}

	custody := idhash.PoolAddress(p.Mint)
	if err := a.Transfer(ctx, p.Provider, custody, p.Mint, p.TokenAmount); err != nil {
		return 0, err
	}
	if err := a.Transfer(ctx, p.Provider, custody, domain.QuoteAsset, p.QuoteAmount); err != nil {
		return 0, err
	}
	if err := a.Mint(ctx, p.Provider, domain.LPAsset(p.Mint), lp); err != nil {
		return 0, err
	}

	a.Emit(&domain.Event{
		Kind:      domain.EventLiquidityAdded,
		Mint:      p.Mint,
		Actor:     p.Provider,
		AmountIn:  p.TokenAmount,
		Amount:    p.QuoteAmount,
		AmountOut: lp,
	})
	return lp, nil
}

// WithdrawLiquidity burns LP and pays out the reserves backing it. It works
// on a disabled pool so LPs can exit after liquidation. An active pool may
// not be drained to an empty reserve.
func WithdrawLiquidity(ctx context.Context, a *ledger.Accounts, p WithdrawParams) (tokenOut, quoteOut uint64, err error) {
	if p.LPAmount == 0 {
		return 0, 0, ErrInvalidAmount
	}
	pool, err := LoadPool(ctx, a, p.Mint)
	if err != nil {
		return 0, 0, err
	}
	if p.LPAmount > pool.LPSupply {
		return 0, 0, ledger.ErrInsufficientFunds
	}

	tokenOut, quoteOut, err = WithdrawAmounts(p.LPAmount, pool)
	if err != nil {
		return 0, 0, err
	}
	if tokenOut < p.MinToken || quoteOut < p.MinQuote {
		return 0, 0, ErrSlippageExceeded
	}
	if tokenOut == 0 && quoteOut == 0 {
		return 0, 0, ErrZeroOutput
	}

	pool.TokenReserve -= tokenOut
	pool.QuoteReserve -= quoteOut
	pool.LPSupply -= p.LPAmount
	if pool.Active && (pool.TokenReserve == 0 || pool.QuoteReserve == 0) {
		return 0, 0, ErrInsufficientLiquidity
	}
	if err := a.UpdatePool(ctx, pool); err != nil {
		return 0, 0, err
	}

	if err := a.Burn(ctx, p.Owner, domain.LPAsset(p.Mint), p.LPAmount); err != nil {
		return 0, 0, err
	}
	custody := idhash.PoolAddress(p.Mint)
	if tokenOut > 0 {
		if err := a.Transfer(ctx, custody, p.Owner, p.Mint, tokenOut); err != nil {
			return 0, 0, err
		}
	}
	if quoteOut > 0 {
		if err := a.Transfer(ctx, custody, p.Owner, domain.QuoteAsset, quoteOut); err != nil {
			return 0, 0, err
		}
	}

	a.Emit(&domain.Event{
		Kind:      domain.EventLiquidityRemoved,
		Mint:      p.Mint,
		Actor:     p.Owner,
		AmountIn:  p.LPAmount,
		AmountOut: tokenOut,
		Amount:    quoteOut,
	})
	return tokenOut, quoteOut, nil
}

// DisablePool marks the pool inactive. Only the custody authority recorded
// at initialization may call it; disabling twice is a no-op.
func DisablePool(ctx context.Context, a *ledger.Accounts, mint, authority string) error {
	pool, err := LoadPool(ctx, a, mint)
	if err != nil {
		return err
	}
	if authority == "" || authority != pool.CustodyAuthority {
		return ErrUnauthorized
	}
	if !pool.Active {
		return nil
	}

	pool.Active = false
	pool.DisabledAt = a.Now()
	if err := a.UpdatePool(ctx, pool); err != nil {
		return err
	}

	a.Emit(&domain.Event{
		Kind:  domain.EventPoolDisabled,
		Mint:  mint,
		Actor: authority,
	})
	return nil
}

// PreviewSwap prices a swap without executing it. It applies the same
// checks ExecuteSwap does, minus slippage.
func PreviewSwap(pool *domain.SwapPool, amountIn uint64, d domain.Direction) (uint64, error) {
	if amountIn == 0 {
		return 0, ErrInvalidAmount
	}
	if !pool.Active {
		return 0, ErrPoolInactive
	}
	reserveIn, reserveOut := reserves(pool, d)
	out, err := AmountOut(amountIn, reserveIn, reserveOut, pool.FeeRateBps)
	if err != nil {
		return 0, err
	}
	if out >= reserveOut {
		return 0, ErrInsufficientLiquidity
	}
	return out, nil
}
