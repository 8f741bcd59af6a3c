package domain

// LiquidityVault holds custody of a token's locked LP and, once the token is
// dead, the claimable holder pools of both released sides. Persisted at idhash.VaultAddress(mint);
// the vault address is also the custody account and the pool's disable
// authority.
type LiquidityVault struct {
	Mint           string
	Treasury       string // receives the platform cut at liquidation
	TotalDeposited uint64 // LP units deposited while active
	Active         bool

	// Set exactly once by liquidation.
	Liquidated        bool
	LiquidatedAt      int64
	Distribution      string // address of the quote holder distribution
	PoolAtLiquidation uint64 // quote holder pool as fixed at liquidation
	PlatformFee       uint64 // quote sent to treasury
	PlatformTokenFee  uint64 // token sent to treasury

	// Token side of the holder pool; TokenDistribution is empty when
	// nothing was left after the platform cut.
	TokenDistribution      string
	TokenPoolAtLiquidation uint64

	ClaimablePool uint64 // PoolAtLiquidation minus what has been claimed
	TotalClaimed  uint64
	ClaimCount    uint64

	ClaimableTokenPool uint64 // TokenPoolAtLiquidation minus token claimed
	TotalTokenClaimed  uint64
}
