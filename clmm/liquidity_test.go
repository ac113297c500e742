package clmm

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decimalsClose(t *testing.T, got, want decimal.Decimal, tolerance string, label string) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThan(decimal.RequireFromString(tolerance)) {
		t.Fatalf("%s = %s, want %s within %s", label, got, want, tolerance)
	}
}

func TestLiquidityInRangeRoundTrip(t *testing.T) {
	current := decimal.NewFromInt(1)
	lower := decimal.RequireFromString("0.5")
	upper := decimal.NewFromInt(2)
	amount := decimal.NewFromInt(100)

	liquidity, err := LiquidityFromSingleAmount(current, lower, upper, amount, true, 6, 6)
	if err != nil {
		t.Fatalf("LiquidityFromSingleAmount() error: %v", err)
	}
	if liquidity.Sign() <= 0 {
		t.Fatalf("liquidity = %s, want positive", liquidity)
	}

	amount0, amount1, err := AmountsFromLiquidity(current, lower, upper, liquidity, 6, 6)
	if err != nil {
		t.Fatalf("AmountsFromLiquidity() error: %v", err)
	}
	decimalsClose(t, amount0, amount, "0.000001", "amount0 round trip")
	if amount1.Sign() <= 0 {
		t.Fatalf("amount1 = %s, want positive inside range", amount1)
	}

	// The symmetric range around price 1 takes equal value of both sides.
	decimalsClose(t, amount1, amount, "0.000001", "amount1 at symmetric range")
}

func TestLiquidityToken1RoundTrip(t *testing.T) {
	current := decimal.NewFromInt(1)
	lower := decimal.RequireFromString("0.5")
	upper := decimal.NewFromInt(2)
	amount := decimal.RequireFromString("250.75")

	liquidity, err := LiquidityFromSingleAmount(current, lower, upper, amount, false, 9, 6)
	if err != nil {
		t.Fatalf("LiquidityFromSingleAmount() error: %v", err)
	}

	_, amount1, err := AmountsFromLiquidity(current, lower, upper, liquidity, 9, 6)
	if err != nil {
		t.Fatalf("AmountsFromLiquidity() error: %v", err)
	}
	decimalsClose(t, amount1, amount, "0.000001", "amount1 round trip")
}

func TestLiquidityBelowRange(t *testing.T) {
	current := decimal.RequireFromString("0.4")
	lower := decimal.RequireFromString("0.5")
	upper := decimal.NewFromInt(2)
	amount := decimal.NewFromInt(10)

	liquidity, err := LiquidityFromSingleAmount(current, lower, upper, amount, true, 6, 6)
	if err != nil {
		t.Fatalf("token0 below range error: %v", err)
	}

	amount0, amount1, err := AmountsFromLiquidity(current, lower, upper, liquidity, 6, 6)
	if err != nil {
		t.Fatalf("AmountsFromLiquidity() error: %v", err)
	}
	decimalsClose(t, amount0, amount, "0.000001", "amount0 below range")
	if !amount1.IsZero() {
		t.Fatalf("amount1 = %s, want zero below range", amount1)
	}

	if _, err := LiquidityFromSingleAmount(current, lower, upper, amount, false, 6, 6); err == nil {
		t.Fatal("token1 deposit below range returned nil error")
	}
}

func TestLiquidityAboveRange(t *testing.T) {
	current := decimal.NewFromInt(3)
	lower := decimal.RequireFromString("0.5")
	upper := decimal.NewFromInt(2)
	amount := decimal.NewFromInt(10)

	liquidity, err := LiquidityFromSingleAmount(current, lower, upper, amount, false, 6, 6)
	if err != nil {
		t.Fatalf("token1 above range error: %v", err)
	}

	amount0, amount1, err := AmountsFromLiquidity(current, lower, upper, liquidity, 6, 6)
	if err != nil {
		t.Fatalf("AmountsFromLiquidity() error: %v", err)
	}
	decimalsClose(t, amount1, amount, "0.000001", "amount1 above range")
	if !amount0.IsZero() {
		t.Fatalf("amount0 = %s, want zero above range", amount0)
	}

	if _, err := LiquidityFromSingleAmount(current, lower, upper, amount, true, 6, 6); err == nil {
		t.Fatal("token0 deposit above range returned nil error")
	}
}

func TestLiquidityToUint128(t *testing.T) {
	got, err := LiquidityToUint128(decimal.RequireFromString("5000000.7"))
	if err != nil {
		t.Fatalf("LiquidityToUint128() error: %v", err)
	}
	if got.Lo != 5_000_000 || got.Hi != 0 {
		t.Fatalf("LiquidityToUint128(5000000.7) = {Lo:%d Hi:%d}, want the truncated integer", got.Lo, got.Hi)
	}

	// 2^64 lands entirely in the high word.
	got, err = LiquidityToUint128(decimal.RequireFromString("18446744073709551616"))
	if err != nil {
		t.Fatalf("LiquidityToUint128(2^64) error: %v", err)
	}
	if got.Lo != 0 || got.Hi != 1 {
		t.Fatalf("LiquidityToUint128(2^64) = {Lo:%d Hi:%d}, want {Lo:0 Hi:1}", got.Lo, got.Hi)
	}

	if _, err := LiquidityToUint128(decimal.NewFromInt(-1)); err == nil {
		t.Fatal("negative liquidity returned nil error")
	}
	if _, err := LiquidityToUint128(decimal.New(1, 40)); err == nil {
		t.Fatal("liquidity above 128 bits returned nil error")
	}
}

func TestLiquidityValidation(t *testing.T) {
	one := decimal.NewFromInt(1)
	two := decimal.NewFromInt(2)

	if _, err := LiquidityFromSingleAmount(one, two, one, one, true, 6, 6); err == nil {
		t.Fatal("inverted price range returned nil error")
	}
	if _, err := LiquidityFromSingleAmount(one, one, one, one, true, 6, 6); err == nil {
		t.Fatal("empty price range returned nil error")
	}
	if _, err := LiquidityFromSingleAmount(one, one, two, one.Neg(), true, 6, 6); err == nil {
		t.Fatal("negative amount returned nil error")
	}
	if _, _, err := AmountsFromLiquidity(one, one, two, one.Neg(), 6, 6); err == nil {
		t.Fatal("negative liquidity returned nil error")
	}
}
