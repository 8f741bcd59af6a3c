// Package wide provides checked uint64 arithmetic with 256-bit intermediates.
//
// Ledger amounts are uint64. Products of two amounts are formed in a
// uint256 so proportional shares never overflow before the division; a
// quotient that does not fit back into uint64 fails closed with ErrOverflow.
package wide

import (
	"math/bits"

	"github.com/holiman/uint256"

	"launchpad-ledger/internal/fault"
)

// Arithmetic errors.
var (
	ErrOverflow       = fault.New(fault.KindArithmetic, "arithmetic overflow")
	ErrUnderflow      = fault.New(fault.KindArithmetic, "arithmetic underflow")
	ErrDivisionByZero = fault.New(fault.KindArithmetic, "division by zero")
)

// Scale is the fixed-point scale used for prices (1e9).
const Scale uint64 = 1_000_000_000

// BpsDenominator is 100% expressed in basis points.
const BpsDenominator uint64 = 10_000

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// MulDiv returns floor(a*b/d).
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return narrow(num.Div(num, uint256.NewInt(d)))
}

// MulDivSum returns floor(a*b/(c+d)). The denominator is summed in 256 bits,
// so c+d may exceed uint64.
func MulDivSum(a, b, c, d uint64) (uint64, error) {
	den := new(uint256.Int).Add(uint256.NewInt(c), uint256.NewInt(d))
	if den.IsZero() {
		return 0, ErrDivisionByZero
	}
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return narrow(num.Div(num, den))
}

// SqrtProduct returns floor(sqrt(a*b)) computed exactly on the 128-bit product.
func SqrtProduct(a, b uint64) uint64 {
	p := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	// sqrt of a value below 2^128 always fits in 64 bits.
	return p.Sqrt(p).Uint64()
}

// Product returns a*b as a uint256 for invariant comparisons.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// Percent returns floor(amount*pct/100).
func Percent(amount, pct uint64) (uint64, error) {
	return MulDiv(amount, pct, 100)
}

// ApplyFeeBps returns amount net of a fee of feeBps basis points:
// floor(amount*(10000-feeBps)/10000).
func ApplyFeeBps(amount uint64, feeBps uint16) (uint64, error) {
	if uint64(feeBps) > BpsDenominator {
		return 0, ErrUnderflow
	}
	return MulDiv(amount, BpsDenominator-uint64(feeBps), BpsDenominator)
}

func narrow(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}
