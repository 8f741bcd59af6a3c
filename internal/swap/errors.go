package swap

import "launchpad-ledger/internal/fault"

var (
	// ErrInvalidAmount is returned for zero amounts.
	ErrInvalidAmount = fault.New(fault.KindValidation, "amount must be positive")

	// ErrInvalidFee is returned for a fee rate above 100%.
	ErrInvalidFee = fault.New(fault.KindValidation, "fee rate exceeds 10000 bps")

	// ErrPoolNotFound is returned when no pool exists for the mint.
	ErrPoolNotFound = fault.New(fault.KindState, "swap pool not found")

	// ErrPoolExists is returned when initializing a pool twice.
	ErrPoolExists = fault.New(fault.KindState, "swap pool already initialized")

	// ErrPoolInactive is returned for swaps and deposits on a disabled pool.
	ErrPoolInactive = fault.New(fault.KindState, "swap pool is inactive")

	// ErrUnauthorized is returned when someone other than the custody
	// authority tries to disable the pool.
	ErrUnauthorized = fault.New(fault.KindAuthorization, "caller is not the pool custody authority")

	// ErrSlippageExceeded is returned when the result is below the caller's minimum.
	ErrSlippageExceeded = fault.New(fault.KindEconomic, "slippage exceeded")

	// ErrInsufficientLiquidity is returned when the output would drain a reserve.
	ErrInsufficientLiquidity = fault.New(fault.KindEconomic, "insufficient liquidity")

	// ErrZeroOutput is returned when an operation would pay out nothing.
	ErrZeroOutput = fault.New(fault.KindEconomic, "operation rounds to zero output")
)
