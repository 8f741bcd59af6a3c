package domain

import "fmt"

// SwapPool is the constant-product pool for one token/quote pair.
// Persisted at idhash.PoolAddress(mint). Never deleted: liquidation only
// clears Active.
type SwapPool struct {
	Mint             string // token mint address
	TokenReserve     uint64 // token units held by the pool
	QuoteReserve     uint64 // quote units (lamports) held by the pool
	FeeRateBps       uint16 // fee on input, basis points (30 = 0.30%)
	LPSupply         uint64 // outstanding LP units
	Active           bool   // false once disabled by custody
	CustodyAuthority string // the only identity allowed to disable the pool
	CreatedAt        int64  // unix seconds
	DisabledAt       int64  // unix seconds, 0 while active
}

// Direction is the side of a swap.
type Direction uint8

const (
	// QuoteToToken pays quote and receives token (a buy).
	QuoteToToken Direction = iota
	// TokenToQuote pays token and receives quote (a sell).
	TokenToQuote
)

// IsBuy reports whether the swap buys the token.
func (d Direction) IsBuy() bool { return d == QuoteToToken }

// String returns "buy" or "sell".
func (d Direction) String() string {
	if d == QuoteToToken {
		return "buy"
	}
	return "sell"
}

// ParseDirection parses "buy" or "sell".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "buy":
		return QuoteToToken, nil
	case "sell":
		return TokenToQuote, nil
	default:
		return 0, fmt.Errorf("unknown swap direction %q", s)
	}
}
