package domain

import "launchpad-ledger/internal/fault"

// ErrInvalidTransition is returned when a status change would move backwards.
var ErrInvalidTransition = fault.New(fault.KindState, "invalid lifecycle status transition")

// Status is the lifecycle state of a launched token.
// The numeric order is the transition order: a status never decreases.
type Status uint8

const (
	StatusActive Status = iota
	StatusWarning
	StatusDead
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusWarning:
		return "warning"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s <= StatusDead
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusDead }

// Transition returns next if moving from s to next is allowed.
// Allowed moves: staying put, Active→Warning, Active→Dead, Warning→Dead.
func (s Status) Transition(next Status) (Status, error) {
	if !next.IsValid() || next < s {
		return s, ErrInvalidTransition
	}
	return next, nil
}

// LifecycleTracker is the per-token activity record that decides when a
// token is dead. Persisted at idhash.TrackerAddress(mint).
type LifecycleTracker struct {
	Mint              string
	Updater           string // identity allowed to report stats
	LaunchTime        int64  // unix seconds
	LastTradeTime     int64  // unix seconds
	VolumeWindow      uint64 // cumulative quote volume since launch
	ATHPrice          uint64 // highest reported price, 1e9 fixed point
	CurrentPrice      uint64 // last reported price, 1e9 fixed point
	Status            Status
	DeathSnapshotTime int64 // set once at the transition to Dead
}
