package swap

import (
	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/wide"
)

// AmountOut prices a swap of amountIn against reserveIn/reserveOut.
// The fee is taken from the input; the result truncates toward zero, which
// keeps reserveIn*reserveOut from ever decreasing.
func AmountOut(amountIn, reserveIn, reserveOut uint64, feeRateBps uint16) (uint64, error) {
	net, err := wide.ApplyFeeBps(amountIn, feeRateBps)
	if err != nil {
		return 0, err
	}
	return wide.MulDivSum(reserveOut, net, reserveIn, net)
}

// Price returns quoteReserve/tokenReserve in 1e9 fixed point, or 0 when the
// pool holds no tokens.
func Price(tokenReserve, quoteReserve uint64) (uint64, error) {
	if tokenReserve == 0 {
		return 0, nil
	}
	return wide.MulDiv(quoteReserve, wide.Scale, tokenReserve)
}

// InitialLP is the bootstrap LP supply: floor(sqrt(token*quote)).
func InitialLP(tokenAmount, quoteAmount uint64) uint64 {
	return wide.SqrtProduct(tokenAmount, quoteAmount)
}

// LPForDeposit returns the LP minted for a deposit. The smaller of the two
// proportional amounts wins so a lopsided deposit cannot dilute existing LPs.
func LPForDeposit(tokenAmount, quoteAmount uint64, p *domain.SwapPool) (uint64, error) {
	if p.LPSupply == 0 || p.TokenReserve == 0 || p.QuoteReserve == 0 {
		return InitialLP(tokenAmount, quoteAmount), nil
	}
	byToken, err := wide.MulDiv(tokenAmount, p.LPSupply, p.TokenReserve)
	if err != nil {
		return 0, err
	}
	byQuote, err := wide.MulDiv(quoteAmount, p.LPSupply, p.QuoteReserve)
	if err != nil {
		return 0, err
	}
	return min(byToken, byQuote), nil
}

// WithdrawAmounts returns the reserves backing lpAmount LP units.
func WithdrawAmounts(lpAmount uint64, p *domain.SwapPool) (tokenOut, quoteOut uint64, err error) {
	if p.LPSupply == 0 {
		return 0, 0, wide.ErrDivisionByZero
	}
	tokenOut, err = wide.MulDiv(lpAmount, p.TokenReserve, p.LPSupply)
	if err != nil {
		return 0, 0, err
	}
	quoteOut, err = wide.MulDiv(lpAmount, p.QuoteReserve, p.LPSupply)
	if err != nil {
		return 0, 0, err
	}
	return tokenOut, quoteOut, nil
}

// reserves returns (reserveIn, reserveOut) for direction.
func reserves(p *domain.SwapPool, d domain.Direction) (uint64, uint64) {
	if d.IsBuy() {
		return p.QuoteReserve, p.TokenReserve
	}
	return p.TokenReserve, p.QuoteReserve
}

// assets returns (assetIn, assetOut) for direction.
func assets(mint string, d domain.Direction) (string, string) {
	if d.IsBuy() {
		return domain.QuoteAsset, mint
	}
	return mint, domain.QuoteAsset
}
