package lifecycle

import (
	"time"

	"launchpad-ledger/internal/domain"
)

const (
	// DefaultMinAge is how old a token must be before it can die.
	DefaultMinAge = 3 * 24 * time.Hour

	// DefaultWarningLead is how long before MinAge a token can be warned.
	DefaultWarningLead = 24 * time.Hour

	// DefaultDeathVolumeThreshold is 15 SOL in lamports.
	DefaultDeathVolumeThreshold uint64 = 15_000_000_000
)

// Rules decides lifecycle transitions. Zero fields take the defaults; a
// negative WarningLead disables the early warning window.
type Rules struct {
	MinAge               time.Duration
	WarningLead          time.Duration
	DeathVolumeThreshold uint64
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		MinAge:               DefaultMinAge,
		WarningLead:          DefaultWarningLead,
		DeathVolumeThreshold: DefaultDeathVolumeThreshold,
	}
}

func (r Rules) withDefaults() Rules {
	if r.MinAge <= 0 {
		r.MinAge = DefaultMinAge
	}
	switch {
	case r.WarningLead == 0:
		r.WarningLead = DefaultWarningLead
	case r.WarningLead < 0:
		r.WarningLead = 0
	}
	if r.WarningLead > r.MinAge {
		r.WarningLead = r.MinAge
	}
	if r.DeathVolumeThreshold == 0 {
		r.DeathVolumeThreshold = DefaultDeathVolumeThreshold
	}
	return r
}

// Next returns the status t should hold at now. It never returns a status
// below t.Status.
//
//   - age >= MinAge and volume < threshold: Dead
//   - age >= MinAge-WarningLead and volume < 2*threshold: Warning
func (r Rules) Next(t *domain.LifecycleTracker, now int64) domain.Status {
	if t.Status.Terminal() {
		return t.Status
	}

	age := now - t.LaunchTime
	minAge := int64(r.MinAge / time.Second)
	warnAge := minAge - int64(r.WarningLead/time.Second)
	if warnAge < 0 {
		warnAge = 0
	}

	warnThreshold := r.DeathVolumeThreshold * 2
	if warnThreshold < r.DeathVolumeThreshold {
		warnThreshold = ^uint64(0)
	}

	candidate := t.Status
	switch {
	case age >= minAge && t.VolumeWindow < r.DeathVolumeThreshold:
		candidate = domain.StatusDead
	case age >= warnAge && t.VolumeWindow < warnThreshold:
		candidate = domain.StatusWarning
	}

	if candidate < t.Status {
		return t.Status
	}
	return candidate
}
