// Package custody holds a token's locked liquidity and liquidates it once
// the token is Dead.
//
// The vault address owns the deposited LP and is the pool's disable
// authority. Liquidation redeems that LP, pays the platform cut to the
// treasury and seals the remainder of each side into a liquidation
// distribution that holders claim from through the claims registry.
package custody

import (
	"context"
	"errors"

	"launchpad-ledger/internal/claims"
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/idhash"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/lifecycle"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/swap"
	"launchpad-ledger/internal/wide"
)

// DefaultPlatformCutPercent is the share of released liquidity sent to the treasury.
const DefaultPlatformCutPercent uint64 = 20

// Liquidation is the outcome of TriggerLiquidation.
type Liquidation struct {
	Mint              string
	LPBurned          uint64
	ReleasedQuote     uint64
	ReleasedToken     uint64
	PlatformFee       uint64
	PlatformTokenFee  uint64
	HolderPool        uint64
	HolderTokenPool   uint64
	Distribution      string
	TokenDistribution string
}

// HolderClaim is what one holder received from a liquidated vault. Token is
// nil when the holder's token share rounds to zero or no token pool exists.
type HolderClaim struct {
	Quote *domain.ClaimRecord
	Token *domain.ClaimRecord
}

// QuoteAmount returns the quote paid.
func (c *HolderClaim) QuoteAmount() uint64 { return c.Quote.Amount }

// TokenAmount returns the token paid, 0 if none.
func (c *HolderClaim) TokenAmount() uint64 {
	if c.Token == nil {
		return 0
	}
	return c.Token.Amount
}

// TokenScope is the distribution scope of mint's token-side holder pool.
func TokenScope(mint string) string { return mint + "/token" }

// LoadVault returns the vault for mint, or ErrVaultNotFound.
func LoadVault(ctx context.Context, a *ledger.Accounts, mint string) (*domain.LiquidityVault, error) {
	v, err := a.Vault(ctx, mint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrVaultNotFound
	}
	return v, err
}

// InitializeVault creates an active vault for mint paying its platform cut
// to treasury.
func InitializeVault(ctx context.Context, a *ledger.Accounts, mint, treasury string) (*domain.LiquidityVault, error) {
	if mint == "" || treasury == "" {
		return nil, storage.ErrInvalidInput
	}

	v := &domain.LiquidityVault{Mint: mint, Treasury: treasury, Active: true}
	if err := a.InsertVault(ctx, v); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrVaultExists
		}
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:  domain.EventVaultInitialized,
		Mint:  mint,
		Actor: treasury,
	})
	return v, nil
}

// Deposit moves lpAmount of mint's LP from depositor into vault custody.
func Deposit(ctx context.Context, a *ledger.Accounts, mint, depositor string, lpAmount uint64) (*domain.LiquidityVault, error) {
	if lpAmount == 0 {
		return nil, ErrInvalidAmount
	}
	v, err := LoadVault(ctx, a, mint)
	if err != nil {
		return nil, err
	}
	if !v.Active {
		return nil, ErrVaultInactive
	}

	if v.TotalDeposited, err = wide.Add(v.TotalDeposited, lpAmount); err != nil {
		return nil, err
	}
	if err := a.Transfer(ctx, depositor, idhash.VaultAddress(mint), domain.LPAsset(mint), lpAmount); err != nil {
		return nil, err
	}
	if err := a.UpdateVault(ctx, v); err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:     domain.EventDeposit,
		Mint:     mint,
		Actor:    depositor,
		AmountIn: lpAmount,
		Amount:   v.TotalDeposited,
	})
	return v, nil
}

// TriggerLiquidation liquidates a Dead token's vault at most once.
//
// It disables the pool with the vault's authority, redeems all custodied
// LP and sends cutPercent of the released quote and token to the treasury.
// The remainder of each side is sealed into its own liquidation
// distribution.
func TriggerLiquidation(ctx context.Context, a *ledger.Accounts, mint string, cutPercent uint64) (*Liquidation, error) {
	if cutPercent > 100 {
		return nil, ErrInvalidCut
	}

	status, err := lifecycle.StatusOf(ctx, a, mint)
	if err != nil {
		return nil, err
	}
	if status != domain.StatusDead {
		return nil, ErrTokenStillActive
	}

	v, err := LoadVault(ctx, a, mint)
	if err != nil {
		return nil, err
	}
	if v.Liquidated {
		return nil, ErrAlreadyPrepared
	}

	custody := idhash.VaultAddress(mint)
	lp, err := a.Balance(ctx, custody, domain.LPAsset(mint))
	if err != nil {
		return nil, err
	}
	if lp == 0 {
		return nil, ErrNothingToLiquidate
	}

	if err := swap.DisablePool(ctx, a, mint, custody); err != nil {
		return nil, err
	}
	tokenOut, quoteOut, err := swap.WithdrawLiquidity(ctx, a, swap.WithdrawParams{
		Mint:     mint,
		Owner:    custody,
		LPAmount: lp,
	})
	if err != nil {
		return nil, err
	}
	if quoteOut == 0 {
		return nil, ErrNothingToLiquidate
	}

	res := &Liquidation{
		Mint:          mint,
		LPBurned:      lp,
		ReleasedQuote: quoteOut,
		ReleasedToken: tokenOut,
	}
	if res.PlatformFee, err = wide.Percent(quoteOut, cutPercent); err != nil {
		return nil, err
	}
	if res.PlatformTokenFee, err = wide.Percent(tokenOut, cutPercent); err != nil {
		return nil, err
	}
	res.HolderPool = quoteOut - res.PlatformFee
	res.HolderTokenPool = tokenOut - res.PlatformTokenFee
	if res.HolderPool == 0 {
		return nil, ErrNothingToLiquidate
	}

	if res.PlatformFee > 0 {
		if err := a.Transfer(ctx, custody, v.Treasury, domain.QuoteAsset, res.PlatformFee); err != nil {
			return nil, err
		}
	}
	if res.PlatformTokenFee > 0 {
		if err := a.Transfer(ctx, custody, v.Treasury, mint, res.PlatformTokenFee); err != nil {
			return nil, err
		}
	}

	if res.Distribution, err = sealHolderPool(ctx, a, mint, domain.QuoteAsset, custody, res.HolderPool); err != nil {
		return nil, err
	}
	if res.HolderTokenPool > 0 {
		if res.TokenDistribution, err = sealHolderPool(ctx, a, TokenScope(mint), mint, custody, res.HolderTokenPool); err != nil {
			return nil, err
		}
	}

	v.Active = false
	v.Liquidated = true
	v.LiquidatedAt = a.Now()
	v.Distribution = res.Distribution
	v.PoolAtLiquidation = res.HolderPool
	v.ClaimablePool = res.HolderPool
	v.PlatformFee = res.PlatformFee
	v.PlatformTokenFee = res.PlatformTokenFee
	v.TokenDistribution = res.TokenDistribution
	v.TokenPoolAtLiquidation = res.HolderTokenPool
	v.ClaimableTokenPool = res.HolderTokenPool
	if err := a.UpdateVault(ctx, v); err != nil {
		return nil, err
	}

	a.Emit(&domain.Event{
		Kind:         domain.EventLiquidation,
		Mint:         mint,
		Actor:        v.Treasury,
		Distribution: res.Distribution,
		AmountIn:     lp,
		AmountOut:    res.PlatformFee,
		Amount:       res.HolderPool,
	})
	return res, nil
}

func sealHolderPool(ctx context.Context, a *ledger.Accounts, scope, asset, custody string, amount uint64) (string, error) {
	dist, _, err := claims.OpenDistribution(ctx, a, domain.DistributionLiquidation, scope, asset)
	if err != nil {
		return "", err
	}
	if _, err := claims.Fund(ctx, a, dist, custody, amount); err != nil {
		return "", err
	}
	if _, err := claims.Seal(ctx, a, dist); err != nil {
		return "", err
	}
	return dist, nil
}

// ClaimHolderShare pays holder balanceAtDeath/supplyAtDeath of both holder
// pools fixed at liquidation, once. The quote claim decides exactly-once;
// the token share is paid in the same unit when it is non-zero.
func ClaimHolderShare(ctx context.Context, a *ledger.Accounts, mint, holder string, balanceAtDeath, supplyAtDeath uint64) (*HolderClaim, error) {
	if balanceAtDeath == 0 {
		return nil, ErrNoTokensAtDeath
	}
	v, err := LoadVault(ctx, a, mint)
	if err != nil {
		return nil, err
	}
	if !v.Liquidated || v.ClaimablePool == 0 {
		return nil, ErrNoClaimablePool
	}

	quote, err := claims.ClaimTx(ctx, a, v.Distribution, holder, balanceAtDeath, supplyAtDeath)
	if err != nil {
		return nil, err
	}
	out := &HolderClaim{Quote: quote}

	// ClaimTx bounds the sum of shares by the fixed pool, so this cannot wrap.
	v.ClaimablePool -= quote.Amount
	v.TotalClaimed += quote.Amount
	v.ClaimCount++

	if v.TokenDistribution != "" && v.ClaimableTokenPool > 0 {
		_, err := claims.Share(balanceAtDeath, supplyAtDeath, v.TokenPoolAtLiquidation)
		switch {
		case errors.Is(err, claims.ErrShareTooSmall):
			// Quote only.
		case err != nil:
			return nil, err
		default:
			if out.Token, err = claims.ClaimTx(ctx, a, v.TokenDistribution, holder, balanceAtDeath, supplyAtDeath); err != nil {
				return nil, err
			}
			v.ClaimableTokenPool -= out.Token.Amount
			v.TotalTokenClaimed += out.Token.Amount
		}
	}

	if err := a.UpdateVault(ctx, v); err != nil {
		return nil, err
	}
	return out, nil
}
