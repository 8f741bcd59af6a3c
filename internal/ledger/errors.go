package ledger

import "launchpad-ledger/internal/fault"

var (
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = fault.New(fault.KindEconomic, "insufficient funds")

	// ErrInvalidAmount is returned for a zero transfer, mint or burn.
	ErrInvalidAmount = fault.New(fault.KindValidation, "amount must be positive")
)
