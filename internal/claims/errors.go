package claims

import "launchpad-ledger/internal/fault"

var (
	// ErrDistributionNotFound is returned when no distribution exists at the address.
	ErrDistributionNotFound = fault.New(fault.KindState, "distribution not found")

	// ErrDistributionExists is returned when opening a distribution twice.
	ErrDistributionExists = fault.New(fault.KindState, "distribution already exists")

	// ErrDistributionOpen is returned when claiming before the total is sealed.
	ErrDistributionOpen = fault.New(fault.KindState, "distribution is not sealed")

	// ErrDistributionSealed is returned when funding or sealing a sealed distribution.
	ErrDistributionSealed = fault.New(fault.KindState, "distribution is sealed")

	// ErrAlreadyClaimed is returned when the claimant's record already exists.
	ErrAlreadyClaimed = fault.New(fault.KindAuthorization, "already claimed")

	// ErrNotWinner is returned when a wallet won no category of a prize distribution.
	ErrNotWinner = fault.New(fault.KindAuthorization, "wallet is not a recorded winner")

	// ErrWinnerRecorded is returned when a category already has a winner.
	ErrWinnerRecorded = fault.New(fault.KindState, "category winner already recorded")

	// ErrInvalidCategory is returned for an unknown prize category.
	ErrInvalidCategory = fault.New(fault.KindValidation, "invalid prize category")

	// ErrInvalidKind is returned for an unknown distribution kind, or a prize
	// operation on a distribution of another kind.
	ErrInvalidKind = fault.New(fault.KindValidation, "invalid distribution kind")

	// ErrInvalidWeight is returned for a zero weight or one above the total.
	ErrInvalidWeight = fault.New(fault.KindValidation, "claim weight must be positive and at most the total weight")

	// ErrInvalidAmount is returned for a zero funding amount.
	ErrInvalidAmount = fault.New(fault.KindValidation, "amount must be positive")

	// ErrInvalidInput is returned for an empty scope, asset or claimant.
	ErrInvalidInput = fault.New(fault.KindValidation, "missing identity")

	// ErrShareTooSmall is returned when the share rounds down to zero.
	ErrShareTooSmall = fault.New(fault.KindEconomic, "share rounds to zero")

	// ErrPoolExhausted is returned when the share exceeds what is left.
	ErrPoolExhausted = fault.New(fault.KindEconomic, "distribution pool exhausted")
)
