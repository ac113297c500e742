package clmm

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/shopspring/decimal"

	"github.com/solatrade/clmm-go/decmath"
	"github.com/solatrade/clmm-go/u128"
)

// sqrtPrec is the binary precision for square roots of raw prices.
const sqrtPrec = uint(256)

// amountScale bounds intermediate scales in liquidity arithmetic.
const amountScale = int32(24)

// rangePrices carries the square roots of the raw (decimal-adjusted) prices
// a liquidity computation works in.
type rangePrices struct {
	current decimal.Decimal
	lower   decimal.Decimal
	upper   decimal.Decimal
}

func newRangePrices(currentPrice, lowerPrice, upperPrice decimal.Decimal, decimals0, decimals1 uint8) (rangePrices, error) {
	if lowerPrice.GreaterThanOrEqual(upperPrice) {
		return rangePrices{}, fmt.Errorf("lower price %s must be below upper price %s", lowerPrice, upperPrice)
	}
	if currentPrice.Sign() <= 0 || lowerPrice.Sign() <= 0 {
		return rangePrices{}, fmt.Errorf("prices must be positive")
	}

	// Human price -> raw price in smallest units of token1 per token0.
	skew := decmath.PowInt(ten, int64(decimals1)-int64(decimals0))
	return rangePrices{
		current: decmath.Sqrt(currentPrice.Mul(skew), sqrtPrec),
		lower:   decmath.Sqrt(lowerPrice.Mul(skew), sqrtPrec),
		upper:   decmath.Sqrt(upperPrice.Mul(skew), sqrtPrec),
	}, nil
}

// LiquidityFromSingleAmount converts a human amount of one token into the
// pool's liquidity unit for the given range. Which token funds the position
// depends on where the current price sits relative to the range:
// below it only token0 is deposited, above it only token1, inside it both.
func LiquidityFromSingleAmount(
	currentPrice, lowerPrice, upperPrice decimal.Decimal,
	amount decimal.Decimal,
	isToken0 bool,
	decimals0, decimals1 uint8,
) (decimal.Decimal, error) {
	if amount.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("amount must be non-negative, got %s", amount)
	}

	p, err := newRangePrices(currentPrice, lowerPrice, upperPrice, decimals0, decimals1)
	if err != nil {
		return decimal.Zero, err
	}

	raw0 := amount.Mul(decmath.PowInt(ten, int64(decimals0)))
	raw1 := amount.Mul(decmath.PowInt(ten, int64(decimals1)))

	switch {
	case p.current.LessThanOrEqual(p.lower):
		if !isToken0 {
			return decimal.Zero, fmt.Errorf("price below range: position takes token0 only")
		}
		return liquidityFromAmount0(raw0, p.lower, p.upper), nil
	case p.current.GreaterThanOrEqual(p.upper):
		if isToken0 {
			return decimal.Zero, fmt.Errorf("price above range: position takes token1 only")
		}
		return liquidityFromAmount1(raw1, p.lower, p.upper), nil
	default:
		if isToken0 {
			return liquidityFromAmount0(raw0, p.current, p.upper), nil
		}
		return liquidityFromAmount1(raw1, p.lower, p.current), nil
	}
}

// AmountsFromLiquidity is the inverse computation: the human token amounts a
// liquidity value represents at the current price. Used to quote a position
// before opening and to report deltas afterwards.
func AmountsFromLiquidity(
	currentPrice, lowerPrice, upperPrice decimal.Decimal,
	liquidity decimal.Decimal,
	decimals0, decimals1 uint8,
) (amount0, amount1 decimal.Decimal, err error) {
	if liquidity.Sign() < 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("liquidity must be non-negative, got %s", liquidity)
	}

	p, err := newRangePrices(currentPrice, lowerPrice, upperPrice, decimals0, decimals1)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var raw0, raw1 decimal.Decimal
	switch {
	case p.current.LessThanOrEqual(p.lower):
		raw0 = amount0FromLiquidity(liquidity, p.lower, p.upper)
	case p.current.GreaterThanOrEqual(p.upper):
		raw1 = amount1FromLiquidity(liquidity, p.lower, p.upper)
	default:
		raw0 = amount0FromLiquidity(liquidity, p.current, p.upper)
		raw1 = amount1FromLiquidity(liquidity, p.lower, p.current)
	}

	amount0 = raw0.DivRound(decmath.PowInt(ten, int64(decimals0)), amountScale)
	amount1 = raw1.DivRound(decmath.PowInt(ten, int64(decimals1)), amountScale)
	return amount0, amount1, nil
}

// LiquidityToUint128 converts a computed liquidity value into the 128-bit
// unit the instruction builders take, truncating any fractional remainder.
func LiquidityToUint128(liquidity decimal.Decimal) (bin.Uint128, error) {
	if liquidity.Sign() < 0 {
		return bin.Uint128{}, fmt.Errorf("liquidity must be non-negative, got %s", liquidity)
	}
	return u128.FromBigInt(liquidity.BigInt())
}

// L = amount0 * (sqrtLower * sqrtUpper) / (sqrtUpper - sqrtLower)
func liquidityFromAmount0(amount0, sqrtLower, sqrtUpper decimal.Decimal) decimal.Decimal {
	return amount0.
		Mul(sqrtLower).Mul(sqrtUpper).
		DivRound(sqrtUpper.Sub(sqrtLower), amountScale)
}

// L = amount1 / (sqrtUpper - sqrtLower)
func liquidityFromAmount1(amount1, sqrtLower, sqrtUpper decimal.Decimal) decimal.Decimal {
	return amount1.DivRound(sqrtUpper.Sub(sqrtLower), amountScale)
}

func amount0FromLiquidity(liquidity, sqrtLower, sqrtUpper decimal.Decimal) decimal.Decimal {
	return liquidity.
		Mul(sqrtUpper.Sub(sqrtLower)).
		DivRound(sqrtLower.Mul(sqrtUpper), amountScale)
}

func amount1FromLiquidity(liquidity, sqrtLower, sqrtUpper decimal.Decimal) decimal.Decimal {
	return liquidity.Mul(sqrtUpper.Sub(sqrtLower))
}
