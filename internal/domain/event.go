package domain

// EventKind names a committed ledger change.
type EventKind string

const (
	EventPoolInitialized    EventKind = "pool_initialized"
	EventSwap               EventKind = "swap"
	EventLiquidityAdded     EventKind = "liquidity_added"
	EventLiquidityRemoved   EventKind = "liquidity_removed"
	EventPoolDisabled       EventKind = "pool_disabled"
	EventTrackerInitialized EventKind = "tracker_initialized"
	EventStatusChanged      EventKind = "status_changed"
	EventVaultInitialized   EventKind = "vault_initialized"
	EventDeposit            EventKind = "deposit"
	EventLiquidation        EventKind = "liquidation"
	EventDistributionOpened EventKind = "distribution_opened"
	EventDistributionFunded EventKind = "distribution_funded"
	EventDistributionSealed EventKind = "distribution_sealed"
	EventWinnerRecorded     EventKind = "winner_recorded"
	EventClaim              EventKind = "claim"
)

// Event describes a committed operation. It is published after the unit
// commits, so subscribers never observe a change that was rolled back.
type Event struct {
	Kind         EventKind `json:"kind"`
	Mint         string    `json:"mint,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Distribution string    `json:"distribution,omitempty"`
	Side         string    `json:"side,omitempty"`
	AmountIn     uint64    `json:"amount_in,omitempty"`
	AmountOut    uint64    `json:"amount_out,omitempty"`
	Amount       uint64    `json:"amount,omitempty"`
	Price        uint64    `json:"price,omitempty"`
	Status       string    `json:"status,omitempty"`
	Timestamp    int64     `json:"timestamp"`
}
