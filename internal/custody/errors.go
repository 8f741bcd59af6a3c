package custody

import "launchpad-ledger/internal/fault"

var (
	// ErrVaultNotFound is returned when no vault exists for the mint.
	ErrVaultNotFound = fault.New(fault.KindState, "liquidity vault not found")

	// ErrVaultExists is returned when initializing a vault twice.
	ErrVaultExists = fault.New(fault.KindState, "liquidity vault already initialized")

	// ErrVaultInactive is returned for deposits after liquidation.
	ErrVaultInactive = fault.New(fault.KindState, "liquidity vault is inactive")

	// ErrTokenStillActive is returned when liquidating a token that is not Dead.
	ErrTokenStillActive = fault.New(fault.KindState, "token is not dead")

	// ErrAlreadyPrepared is returned when liquidating a vault a second time.
	ErrAlreadyPrepared = fault.New(fault.KindState, "liquidation already prepared")

	// ErrNothingToLiquidate is returned when the vault holds no LP, or its
	// LP releases no quote.
	ErrNothingToLiquidate = fault.New(fault.KindState, "vault holds nothing to liquidate")

	// ErrNoClaimablePool is returned for claims before liquidation or after
	// the pool has been paid out.
	ErrNoClaimablePool = fault.New(fault.KindState, "no claimable pool")

	// ErrNoTokensAtDeath is returned for a claimant that held nothing.
	ErrNoTokensAtDeath = fault.New(fault.KindValidation, "claimant held no tokens at death")

	// ErrInvalidAmount is returned for zero deposits.
	ErrInvalidAmount = fault.New(fault.KindValidation, "amount must be positive")

	// ErrInvalidCut is returned for a platform cut above 100%.
	ErrInvalidCut = fault.New(fault.KindValidation, "platform cut exceeds 100 percent")
)
