package domain

// ClaimRecord marks that a claimant has been paid from a distribution.
// Persisted at idhash.ClaimAddress(distribution, claimant); its creation is
// the exactly-once lock, so it is never updated or deleted.
type ClaimRecord struct {
	Distribution string
	Claimant     string
	Claimed      bool
	Amount       uint64
	Weight       uint64
	TotalWeight  uint64
	Timestamp    int64
}
