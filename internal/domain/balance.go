package domain

// QuoteAsset is the native quote currency (lamports).
const QuoteAsset = "SOL"

// LPAsset returns the asset name of a pool's LP units.
func LPAsset(mint string) string {
	return "lp:" + mint
}

// Balance is the amount of one asset held by one owner.
// Persisted at idhash.BalanceAddress(owner, asset).
type Balance struct {
	Owner  string
	Asset  string
	Amount uint64
}
