package api

import (
	"math/big"

	"github.com/shopspring/decimal"

	"launchpad-ledger/internal/custody"
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/wide"
)

// quoteDecimals is the number of decimals of the quote asset (lamports).
const quoteDecimals = 9

// APIRespond is the envelope of every response.
type APIRespond struct {
	Result interface{} `json:"result"`
	Error  *string     `json:"error"`
}

// SOL formats a lamport amount as a SOL decimal string.
func SOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -quoteDecimals).String()
}

// Price formats a 1e9 fixed-point price.
func Price(scaled uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(scaled), 0).
		Div(decimal.NewFromBigInt(new(big.Int).SetUint64(wide.Scale), 0)).String()
}

type launchRequest struct {
	Mint        string `json:"mint"`
	Creator     string `json:"creator"`
	TokenAmount uint64 `json:"token_amount"`
	QuoteAmount uint64 `json:"quote_amount"`
}

type tradeRequest struct {
	Mint         string `json:"mint"`
	Trader       string `json:"trader"`
	Side         string `json:"side"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
}

type tradeResponse struct {
	Side        string `json:"side"`
	AmountIn    uint64 `json:"amount_in"`
	AmountOut   uint64 `json:"amount_out"`
	PriceAfter  uint64 `json:"price_after"`
	Price       string `json:"price"`
	QuoteVolume string `json:"quote_volume_sol"`
}

type liquidityRequest struct {
	Provider    string `json:"provider"`
	TokenAmount uint64 `json:"token_amount"`
	QuoteAmount uint64 `json:"quote_amount"`
	MinLP       uint64 `json:"min_lp"`
}

type withdrawRequest struct {
	Owner    string `json:"owner"`
	LPAmount uint64 `json:"lp_amount"`
	MinToken uint64 `json:"min_token"`
	MinQuote uint64 `json:"min_quote"`
}

type poolResponse struct {
	Mint         string `json:"mint"`
	TokenReserve uint64 `json:"token_reserve"`
	QuoteReserve uint64 `json:"quote_reserve"`
	QuoteSOL     string `json:"quote_reserve_sol"`
	LPSupply     uint64 `json:"lp_supply"`
	FeeRateBps   uint16 `json:"fee_rate_bps"`
	Price        uint64 `json:"price"`
	PriceSOL     string `json:"price_sol"`
	Active       bool   `json:"active"`
	CreatedAt    int64  `json:"created_at"`
	DisabledAt   int64  `json:"disabled_at,omitempty"`
}

func newPoolResponse(p *domain.SwapPool, price uint64) *poolResponse {
	return &poolResponse{
		Mint:         p.Mint,
		TokenReserve: p.TokenReserve,
		QuoteReserve: p.QuoteReserve,
		QuoteSOL:     SOL(p.QuoteReserve),
		LPSupply:     p.LPSupply,
		FeeRateBps:   p.FeeRateBps,
		Price:        price,
		PriceSOL:     Price(price),
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		DisabledAt:   p.DisabledAt,
	}
}

type trackerResponse struct {
	Mint              string `json:"mint"`
	Status            string `json:"status"`
	LaunchTime        int64  `json:"launch_time"`
	LastTradeTime     int64  `json:"last_trade_time"`
	Volume            uint64 `json:"volume"`
	VolumeSOL         string `json:"volume_sol"`
	CurrentPrice      uint64 `json:"current_price"`
	ATHPrice          uint64 `json:"ath_price"`
	DeathSnapshotTime int64  `json:"death_snapshot_time,omitempty"`
}

func newTrackerResponse(t *domain.LifecycleTracker) *trackerResponse {
	return &trackerResponse{
		Mint:              t.Mint,
		Status:            t.Status.String(),
		LaunchTime:        t.LaunchTime,
		LastTradeTime:     t.LastTradeTime,
		Volume:            t.VolumeWindow,
		VolumeSOL:         SOL(t.VolumeWindow),
		CurrentPrice:      t.CurrentPrice,
		ATHPrice:          t.ATHPrice,
		DeathSnapshotTime: t.DeathSnapshotTime,
	}
}

type vaultResponse struct {
	Mint              string `json:"mint"`
	Active            bool   `json:"active"`
	TotalDeposited    uint64 `json:"total_deposited"`
	Liquidated        bool   `json:"liquidated"`
	LiquidatedAt      int64  `json:"liquidated_at,omitempty"`
	Distribution      string `json:"distribution,omitempty"`
	PoolAtLiquidation uint64 `json:"pool_at_liquidation"`
	PlatformFee       uint64 `json:"platform_fee"`
	ClaimablePool     uint64 `json:"claimable_pool"`
	ClaimableSOL      string `json:"claimable_sol"`
	TotalClaimed      uint64 `json:"total_claimed"`
	ClaimCount        uint64 `json:"claim_count"`

	TokenDistribution      string `json:"token_distribution,omitempty"`
	TokenPoolAtLiquidation uint64 `json:"token_pool_at_liquidation"`
	ClaimableTokenPool     uint64 `json:"claimable_token_pool"`
	TotalTokenClaimed      uint64 `json:"total_token_claimed"`
}

func newVaultResponse(v *domain.LiquidityVault) *vaultResponse {
	return &vaultResponse{
		Mint:              v.Mint,
		Active:            v.Active,
		TotalDeposited:    v.TotalDeposited,
		Liquidated:        v.Liquidated,
		LiquidatedAt:      v.LiquidatedAt,
		Distribution:      v.Distribution,
		PoolAtLiquidation: v.PoolAtLiquidation,
		PlatformFee:       v.PlatformFee,
		ClaimablePool:     v.ClaimablePool,
		ClaimableSOL:      SOL(v.ClaimablePool),
		TotalClaimed:      v.TotalClaimed,
		ClaimCount:        v.ClaimCount,

		TokenDistribution:      v.TokenDistribution,
		TokenPoolAtLiquidation: v.TokenPoolAtLiquidation,
		ClaimableTokenPool:     v.ClaimableTokenPool,
		TotalTokenClaimed:      v.TotalTokenClaimed,
	}
}

type distributionResponse struct {
	Address    string `json:"address"`
	Kind       string `json:"kind"`
	Scope      string `json:"scope"`
	Asset      string `json:"asset"`
	Total      uint64 `json:"total"`
	Claimed    uint64 `json:"claimed"`
	Remaining  uint64 `json:"remaining"`
	ClaimCount uint64 `json:"claim_count"`
	Sealed     bool   `json:"sealed"`
}

func newDistributionResponse(address string, d *domain.Distribution) *distributionResponse {
	return &distributionResponse{
		Address:    address,
		Kind:       d.Kind.String(),
		Scope:      d.Scope,
		Asset:      d.Asset,
		Total:      d.Total,
		Claimed:    d.Claimed,
		Remaining:  d.Remaining(),
		ClaimCount: d.ClaimCount,
		Sealed:     d.Sealed,
	}
}

type claimResponse struct {
	Distribution string `json:"distribution"`
	Claimant     string `json:"claimant"`
	Amount       uint64 `json:"amount"`
	Weight       uint64 `json:"weight"`
	TotalWeight  uint64 `json:"total_weight"`
	Timestamp    int64  `json:"timestamp"`
}

func newClaimResponse(c *domain.ClaimRecord) *claimResponse {
	return &claimResponse{
		Distribution: c.Distribution,
		Claimant:     c.Claimant,
		Amount:       c.Amount,
		Weight:       c.Weight,
		TotalWeight:  c.TotalWeight,
		Timestamp:    c.Timestamp,
	}
}

// holderClaimResponse is the quote claim plus the token side paid with it.
type holderClaimResponse struct {
	claimResponse
	AmountSOL         string `json:"amount_sol"`
	TokenDistribution string `json:"token_distribution,omitempty"`
	TokenAmount       uint64 `json:"token_amount"`
}

func newHolderClaimResponse(c *custody.HolderClaim) *holderClaimResponse {
	out := &holderClaimResponse{
		claimResponse: *newClaimResponse(c.Quote),
		AmountSOL:     SOL(c.QuoteAmount()),
		TokenAmount:   c.TokenAmount(),
	}
	if c.Token != nil {
		out.TokenDistribution = c.Token.Distribution
	}
	return out
}

type holderClaimRequest struct {
	Holder         string `json:"holder"`
	BalanceAtDeath uint64 `json:"balance_at_death"`
	SupplyAtDeath  uint64 `json:"supply_at_death"`
}

type openDistributionRequest struct {
	Kind  string `json:"kind"`
	Scope string `json:"scope"`
	Asset string `json:"asset"`
}

type fundRequest struct {
	Funder string `json:"funder"`
	Amount uint64 `json:"amount"`
}

type claimRequest struct {
	Claimant    string `json:"claimant"`
	Weight      uint64 `json:"weight"`
	TotalWeight uint64 `json:"total_weight"`
}

type winnerRequest struct {
	Category string `json:"category"`
	Wallet   string `json:"wallet"`
	Metric   uint64 `json:"metric"`
}

type prizeClaimRequest struct {
	Wallet string `json:"wallet"`
}

type faucetRequest struct {
	Owner  string `json:"owner"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}
