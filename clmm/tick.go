package clmm

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/solatrade/clmm-go/decmath"
)

// lnScale is the decimal scale for logarithms in tick conversion.
const lnScale = int32(24)

var (
	tickBase = decimal.RequireFromString("1.0001")
	ten      = decimal.NewFromInt(10)
)

// PriceToTick maps a human price to the nearest tick index. decimalSkew is
// tokenDecimals0 - tokenDecimals1; the raw on-chain price is the human price
// divided by 10^decimalSkew.
func PriceToTick(price decimal.Decimal, decimalSkew int32) (int32, error) {
	if price.Sign() <= 0 {
		return 0, fmt.Errorf("price must be positive, got %s", price)
	}

	ratio := price.DivRound(decmath.PowInt(ten, int64(decimalSkew)), lnScale+8)
	tick := decmath.Ln(ratio, lnScale).
		DivRound(decmath.Ln(tickBase, lnScale), 12).
		Round(0)

	t := tick.IntPart()
	if t < MinTick || t > MaxTick {
		return 0, fmt.Errorf("price %s maps to tick %d outside [%d, %d]", price, t, MinTick, MaxTick)
	}
	return int32(t), nil
}

// TickToPrice is the inverse mapping: 1.0001^tick * 10^decimalSkew.
func TickToPrice(tick int32, decimalSkew int32) decimal.Decimal {
	return decmath.PowInt(tickBase, int64(tick)).
		Mul(decmath.PowInt(ten, int64(decimalSkew)))
}

// RoundToSpacing snaps a tick to the nearest multiple of the pool's tick
// spacing. Pure integer arithmetic; ties round up.
func RoundToSpacing(tick int32, tickSpacing uint16) int32 {
	spacing := int32(tickSpacing)
	rem := tick % spacing
	if rem < 0 {
		rem += spacing
	}
	base := tick - rem
	if rem*2 >= spacing {
		base += spacing
	}
	return base
}
