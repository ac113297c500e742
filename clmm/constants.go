package clmm

import (
	"github.com/gagliardetto/solana-go"

	"github.com/solatrade/clmm-go/u128"
)

// ProgramID is the deployed concentrated-liquidity program this codec targets.
var ProgramID = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")

// Sqrt-price bounds the program accepts, Q64.64. A swap with no explicit
// limit runs to one step inside the bound for its direction.
var (
	MinSqrtPriceX64 = u128.FromString("4295048016")
	MaxSqrtPriceX64 = u128.FromString("79226673521066979257578248091")
)

const (
	// MinTick and MaxTick bound the representable price range.
	MinTick = -443636
	MaxTick = 443636

	// TicksPerArray is the number of tick slots one tick-array account covers
	// (multiplied by the pool's tick spacing).
	TicksPerArray = 60
)

const (
	poolStateAccountName = "PoolState"
	positionAccountName  = "PersonalPositionState"

	positionSeed  = "position"
	tickArraySeed = "tick_array"
	metadataSeed  = "metadata"
)
