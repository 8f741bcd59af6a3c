package lifecycle

import (
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/fault"
)

var (
	// ErrTrackerNotFound is returned when no tracker exists for the mint.
	ErrTrackerNotFound = fault.New(fault.KindState, "lifecycle tracker not found")

	// ErrTrackerExists is returned when initializing a tracker twice.
	ErrTrackerExists = fault.New(fault.KindState, "lifecycle tracker already initialized")

	// ErrTokenIsDead is returned when reporting stats for a dead token.
	ErrTokenIsDead = fault.New(fault.KindState, "token is dead")

	// ErrBuysDisabledForDeadToken is returned for a buy on a dead token.
	ErrBuysDisabledForDeadToken = fault.New(fault.KindState, "buys are disabled for a dead token")

	// ErrUnauthorized is returned when stats come from someone other than
	// the recorded updater.
	ErrUnauthorized = fault.New(fault.KindAuthorization, "caller is not the tracker updater")

	// ErrInvalidTransition is returned when a status would move backwards.
	ErrInvalidTransition = domain.ErrInvalidTransition
)
