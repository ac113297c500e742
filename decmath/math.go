// Package decmath carries the high-precision decimal routines the tick/price
// math needs. Everything operates on shopspring decimals so repeated
// liquidity calculations do not accumulate binary-float drift.
package decmath

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// workScale is the intermediate rounding scale. Results stay exact well past
// the 9 fractional decimals any SPL token amount can express.
const workScale = int32(40)

// PowInt raises base to an integer exponent by squaring, rounding each step
// to keep digit growth bounded for exponents up to the tick range (~±443636).
func PowInt(base decimal.Decimal, exp int64) decimal.Decimal {
	if exp == 0 {
		return decimal.NewFromInt(1)
	}
	neg := exp < 0
	if neg {
		exp = -exp
	}

	result := decimal.NewFromInt(1)
	acc := base
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(acc).Round(workScale)
		}
		exp >>= 1
		if exp > 0 {
			acc = acc.Mul(acc).Round(workScale)
		}
	}

	if neg {
		return decimal.NewFromInt(1).DivRound(result, workScale)
	}
	return result
}

// Sqrt computes the square root at the given binary precision. The operand
// is converted through its exact rational form; Decimal.BigFloat would round
// it to a 64-bit mantissa first.
func Sqrt(x decimal.Decimal, prec uint) decimal.Decimal {
	if x.Sign() < 0 {
		panic("sqrt on negative decimal")
	}

	f := new(big.Float).SetPrec(prec).SetRat(x.Rat())
	out, _ := decimal.NewFromString(f.Sqrt(f).Text('f', -1))
	return out
}

// Exp evaluates e^x by Taylor series, rounded to scale.
func Exp(x decimal.Decimal, scale int32) decimal.Decimal {
	term := decimal.NewFromInt(1)
	sum := decimal.NewFromInt(1)
	for i := 1; i < 200; i++ {
		term = term.Mul(x).DivRound(decimal.NewFromInt(int64(i)), scale+8)
		if term.Abs().LessThan(decimal.New(1, -scale)) {
			break
		}
		sum = sum.Add(term)
	}
	return sum.Round(scale)
}

// Ln computes the natural logarithm by Newton iteration on exp(y) = x.
func Ln(x decimal.Decimal, scale int32) decimal.Decimal {
	if x.Sign() <= 0 {
		panic("ln undefined for <= 0")
	}

	// Seed from the float64 logarithm, then refine.
	f, _ := x.Float64()
	y := decimal.NewFromFloat(math.Log(f))
	epsilon := decimal.New(1, -scale)

	for i := 0; i < 100; i++ {
		expY := Exp(y, scale+8)
		delta := expY.Sub(x).DivRound(expY, scale+8)
		y = y.Sub(delta)
		if delta.Abs().LessThan(epsilon) {
			break
		}
	}
	return y.Round(scale)
}
