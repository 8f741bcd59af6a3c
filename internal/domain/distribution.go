package domain

import "fmt"

// DistributionKind identifies what a claim registry pays out.
type DistributionKind uint8

const (
	DistributionFeeReward DistributionKind = iota + 1
	DistributionHolder
	DistributionPrize
	DistributionLiquidation
)

var distributionKindNames = map[DistributionKind]string{
	DistributionFeeReward:   "fee_reward",
	DistributionHolder:      "holder",
	DistributionPrize:       "prize",
	DistributionLiquidation: "liquidation",
}

// String returns the kind name.
func (k DistributionKind) String() string {
	if name, ok := distributionKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether k is a known kind.
func (k DistributionKind) IsValid() bool {
	_, ok := distributionKindNames[k]
	return ok
}

// ParseDistributionKind parses a kind name.
func ParseDistributionKind(s string) (DistributionKind, error) {
	for k, name := range distributionKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown distribution kind %q", s)
}

// Distribution is a claimable pool paid out proportionally, once per
// claimant. Persisted at idhash.DistributionAddress(kind, scope); the same
// address owns the pooled funds.
type Distribution struct {
	Kind       DistributionKind
	Scope      string // e.g. a day id or a token mint
	Asset      string
	Total      uint64 // fixed once sealed
	Claimed    uint64
	ClaimCount uint64
	Sealed     bool
	CreatedAt  int64
	SealedAt   int64
}

// Remaining returns what is still claimable.
func (d *Distribution) Remaining() uint64 {
	return d.Total - d.Claimed
}

// PrizeCategory is a daily leaderboard category.
type PrizeCategory uint8

const (
	CategoryMostTraded PrizeCategory = iota
	CategoryLPMVP
	CategoryEarlyBuyer
	CategorySmartMoney
	CategoryProfitChampion
)

// PrizeCategories lists every category in payout order.
var PrizeCategories = []PrizeCategory{
	CategoryMostTraded,
	CategoryLPMVP,
	CategoryEarlyBuyer,
	CategorySmartMoney,
	CategoryProfitChampion,
}

// Weight returns the category's percentage of the prize pool.
// The weights sum to 100.
func (c PrizeCategory) Weight() uint64 {
	switch c {
	case CategoryMostTraded:
		return 30
	case CategoryLPMVP:
		return 25
	case CategoryEarlyBuyer:
		return 20
	case CategorySmartMoney:
		return 15
	case CategoryProfitChampion:
		return 10
	default:
		return 0
	}
}

// IsValid reports whether c is a known category.
func (c PrizeCategory) IsValid() bool { return c <= CategoryProfitChampion }

// String returns the category name.
func (c PrizeCategory) String() string {
	switch c {
	case CategoryMostTraded:
		return "most_traded"
	case CategoryLPMVP:
		return "lp_mvp"
	case CategoryEarlyBuyer:
		return "early_buyer"
	case CategorySmartMoney:
		return "smart_money"
	case CategoryProfitChampion:
		return "profit_champion"
	default:
		return "unknown"
	}
}

// ParsePrizeCategory parses a category name.
func ParsePrizeCategory(s string) (PrizeCategory, error) {
	for _, c := range PrizeCategories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown prize category %q", s)
}

// PrizeWinner records the winner of one category of a prize distribution.
// Persisted at idhash.WinnerAddress(distribution, category).
type PrizeWinner struct {
	Distribution string
	Category     PrizeCategory
	Wallet       string
	MetricValue  uint64
	RecordedAt   int64
}
