package api

import (
	"fmt"
	"math"

	"github.com/gin-gonic/gin"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/platform"
	"launchpad-ledger/internal/swap"
)

func (h *handler) launch(c *gin.Context) {
	var req launchRequest
	if !bind(c, &req) {
		return
	}
	l, err := h.p.Launch(c.Request.Context(), platform.LaunchParams{
		Mint:        req.Mint,
		Creator:     req.Creator,
		TokenAmount: req.TokenAmount,
		QuoteAmount: req.QuoteAmount,
	})
	if err != nil {
		fail(c, err)
		return
	}
	price, _ := swap.Price(l.Pool.TokenReserve, l.Pool.QuoteReserve)
	ok(c, gin.H{
		"pool":    newPoolResponse(l.Pool, price),
		"tracker": newTrackerResponse(l.Tracker),
		"vault":   newVaultResponse(l.Vault),
	})
}

func (h *handler) trade(c *gin.Context) {
	var req tradeRequest
	if !bind(c, &req) {
		return
	}
	side, err := domain.ParseDirection(req.Side)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	res, err := h.p.Trade(c.Request.Context(), swap.SwapParams{
		Mint:         req.Mint,
		Trader:       req.Trader,
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
		Direction:    side,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tradeResponse{
		Side:        res.Direction.String(),
		AmountIn:    res.AmountIn,
		AmountOut:   res.AmountOut,
		PriceAfter:  res.PriceAfter,
		Price:       Price(res.PriceAfter),
		QuoteVolume: SOL(res.QuoteVolume()),
	})
}

func (h *handler) quote(c *gin.Context) {
	side, err := domain.ParseDirection(c.Query("side"))
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	amount, err := queryUint(c, "amount")
	if err != nil {
		fail(c, err)
		return
	}
	out, err := h.p.Pools().Quote(c.Request.Context(), c.Query("mint"), amount, side)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"amount_in": amount, "amount_out": out, "side": side.String()})
}

func (h *handler) sweep(c *gin.Context) {
	report, err := h.p.Sweep(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	failed := make(map[string]string, len(report.Failed))
	for mint, err := range report.Failed {
		failed[mint] = err.Error()
	}
	ok(c, gin.H{
		"checked":     report.Checked,
		"transitions": report.Transitions,
		"liquidated":  report.Liquidated,
		"failed":      failed,
	})
}

func (h *handler) pool(c *gin.Context) {
	pool, err := h.p.Pools().Pool(c.Request.Context(), c.Param("mint"))
	if err != nil {
		fail(c, err)
		return
	}
	price, err := swap.Price(pool.TokenReserve, pool.QuoteReserve)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newPoolResponse(pool, price))
}

func (h *handler) addLiquidity(c *gin.Context) {
	var req liquidityRequest
	if !bind(c, &req) {
		return
	}
	lp, err := h.p.Pools().AddLiquidity(c.Request.Context(), swap.LiquidityParams{
		Mint:        c.Param("mint"),
		Provider:    req.Provider,
		TokenAmount: req.TokenAmount,
		QuoteAmount: req.QuoteAmount,
		MinLP:       req.MinLP,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"lp_minted": lp})
}

func (h *handler) withdraw(c *gin.Context) {
	var req withdrawRequest
	if !bind(c, &req) {
		return
	}
	tokenOut, quoteOut, err := h.p.Pools().RemoveLiquidity(c.Request.Context(), swap.WithdrawParams{
		Mint:     c.Param("mint"),
		Owner:    req.Owner,
		LPAmount: req.LPAmount,
		MinToken: req.MinToken,
		MinQuote: req.MinQuote,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"token_out": tokenOut, "quote_out": quoteOut})
}

func (h *handler) tokens(c *gin.Context) {
	mints, err := h.p.Mints(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, mints)
}

func (h *handler) tracker(c *gin.Context) {
	t, err := h.p.Lifecycle().Tracker(c.Request.Context(), c.Param("mint"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newTrackerResponse(t))
}

func (h *handler) check(c *gin.Context) {
	status, err := h.p.Lifecycle().CheckAndFlagDead(c.Request.Context(), c.Param("mint"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"status": status.String()})
}

func (h *handler) vault(c *gin.Context) {
	v, err := h.p.Custody().Vault(c.Request.Context(), c.Param("mint"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newVaultResponse(v))
}

func (h *handler) liquidate(c *gin.Context) {
	res, err := h.p.Custody().TriggerLiquidation(c.Request.Context(), c.Param("mint"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"lp_burned":          res.LPBurned,
		"released_quote":     res.ReleasedQuote,
		"released_token":     res.ReleasedToken,
		"platform_fee":       res.PlatformFee,
		"platform_fee_sol":   SOL(res.PlatformFee),
		"platform_token_fee": res.PlatformTokenFee,
		"holder_pool":        res.HolderPool,
		"holder_pool_sol":    SOL(res.HolderPool),
		"holder_token_pool":  res.HolderTokenPool,
		"distribution":       res.Distribution,
		"token_distribution": res.TokenDistribution,
	})
}

func (h *handler) claimHolderShare(c *gin.Context) {
	var req holderClaimRequest
	if !bind(c, &req) {
		return
	}
	claim, err := h.p.Custody().ClaimHolderShare(c.Request.Context(), c.Param("mint"), req.Holder, req.BalanceAtDeath, req.SupplyAtDeath)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newHolderClaimResponse(claim))
}

func (h *handler) openDistribution(c *gin.Context) {
	var req openDistributionRequest
	if !bind(c, &req) {
		return
	}
	kind, err := domain.ParseDistributionKind(req.Kind)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Asset == "" {
		req.Asset = domain.QuoteAsset
	}
	address, err := h.p.Claims().Open(c.Request.Context(), kind, req.Scope, req.Asset)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"address": address})
}

func (h *handler) distribution(c *gin.Context) {
	address := c.Param("address")
	d, err := h.p.Claims().Distribution(c.Request.Context(), address)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newDistributionResponse(address, d))
}

func (h *handler) fund(c *gin.Context) {
	var req fundRequest
	if !bind(c, &req) {
		return
	}
	address := c.Param("address")
	d, err := h.p.Claims().Fund(c.Request.Context(), address, req.Funder, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newDistributionResponse(address, d))
}

func (h *handler) seal(c *gin.Context) {
	address := c.Param("address")
	d, err := h.p.Claims().Seal(c.Request.Context(), address)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newDistributionResponse(address, d))
}

func (h *handler) claim(c *gin.Context) {
	var req claimRequest
	if !bind(c, &req) {
		return
	}
	rec, err := h.p.Claims().Claim(c.Request.Context(), c.Param("address"), req.Claimant, req.Weight, req.TotalWeight)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newClaimResponse(rec))
}

func (h *handler) claimRecord(c *gin.Context) {
	rec, err := h.p.Claims().ClaimRecord(c.Request.Context(), c.Param("address"), c.Param("claimant"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newClaimResponse(rec))
}

func (h *handler) recordWinner(c *gin.Context) {
	var req winnerRequest
	if !bind(c, &req) {
		return
	}
	category, err := domain.ParsePrizeCategory(req.Category)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	w, err := h.p.Claims().RecordWinner(c.Request.Context(), c.Param("address"), category, req.Wallet, req.Metric)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"category": w.Category.String(), "wallet": w.Wallet, "weight": w.Category.Weight()})
}

func (h *handler) claimPrize(c *gin.Context) {
	var req prizeClaimRequest
	if !bind(c, &req) {
		return
	}
	rec, err := h.p.Claims().ClaimPrize(c.Request.Context(), c.Param("address"), req.Wallet)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, newClaimResponse(rec))
}

func (h *handler) balance(c *gin.Context) {
	bal, err := h.p.Balance(c.Request.Context(), c.Param("owner"), c.Param("asset"))
	if err != nil {
		fail(c, err)
		return
	}
	result := gin.H{"owner": c.Param("owner"), "asset": c.Param("asset"), "amount": bal}
	if c.Param("asset") == domain.QuoteAsset {
		result["amount_sol"] = SOL(bal)
	}
	ok(c, result)
}

func (h *handler) events(c *gin.Context) {
	start, err := queryUint(c, "start")
	if err != nil {
		fail(c, err)
		return
	}
	end, err := queryUint(c, "end")
	if err != nil {
		fail(c, err)
		return
	}
	if end == 0 || end > math.MaxInt64 {
		end = math.MaxInt64
	}
	if start > end {
		fail(c, fmt.Errorf("%w: start after end", errBadRequest))
		return
	}

	ctx := c.Request.Context()
	var events []*domain.Event
	switch {
	case c.Query("mint") != "":
		events, err = h.journal.GetByMint(ctx, c.Query("mint"), int64(start), int64(end))
	case c.Query("kind") != "":
		events, err = h.journal.GetByKind(ctx, domain.EventKind(c.Query("kind")), int64(start), int64(end))
	default:
		err = fmt.Errorf("%w: mint or kind is required", errBadRequest)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, events)
}

func (h *handler) faucet(c *gin.Context) {
	var req faucetRequest
	if !bind(c, &req) {
		return
	}
	if err := h.p.Faucet(c.Request.Context(), req.Owner, req.Asset, req.Amount); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"owner": req.Owner, "asset": req.Asset, "amount": req.Amount})
}
