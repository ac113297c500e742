package clmm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	solanago "github.com/solatrade/clmm-go/solana"
	"github.com/solatrade/clmm-go/u128"
)

// ErrDecode marks malformed or truncated on-chain account data. Decode
// failures are fatal for the call, never retried.
var ErrDecode = errors.New("clmm: malformed account data")

// RewardInfo is one of the pool's three reward-emission slots.
type RewardInfo struct {
	State                 uint8
	OpenTime              uint64
	EndTime               uint64
	LastUpdateTime        uint64
	EmissionsPerSecondX64 bin.Uint128
	TotalEmissioned       uint64
	Claimed               uint64
	TokenMint             solana.PublicKey
	TokenVault            solana.PublicKey
	Authority             solana.PublicKey
	GrowthGlobalX64       bin.Uint128
}

// PoolState is the decoded fixed-layout pool account.
type PoolState struct {
	Address        solana.PublicKey
	Bump           uint8
	AmmConfig      solana.PublicKey
	Owner          solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationKey solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	Liquidity      bin.Uint128
	SqrtPriceX64   bin.Uint128
	TickCurrent    int32
	FeeGrowth0X64  bin.Uint128
	FeeGrowth1X64  bin.Uint128
	RewardInfos    [3]RewardInfo
}

// PositionRewardInfo is one reward checkpoint of a position.
type PositionRewardInfo struct {
	GrowthInsideLastX64 bin.Uint128
	AmountOwed          uint64
}

// PositionState is the decoded fixed-layout personal-position account. One
// record corresponds to exactly one position NFT.
type PositionState struct {
	Address        solana.PublicKey
	Bump           uint8
	NftMint        solana.PublicKey
	PoolID         solana.PublicKey
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      bin.Uint128
	FeeGrowth0Last bin.Uint128
	FeeGrowth1Last bin.Uint128
	TokenFeesOwed0 uint64
	TokenFeesOwed1 uint64
	RewardInfos    [3]PositionRewardInfo
}

// poolPositionOffset is where PoolID sits inside a position account
// (discriminator + bump + nft mint), used for getProgramAccounts filters.
const poolPositionOffset = 8 + 1 + 32

// DecodePool walks the pool account buffer at fixed offsets in declaration
// order. Buffers shorter than the schema requires are rejected outright.
func DecodePool(data []byte) (*PoolState, error) {
	r := reader{data: data, schema: poolStateAccountName}

	if err := r.discriminator(); err != nil {
		return nil, err
	}

	out := &PoolState{}
	out.Bump = r.u8()
	out.AmmConfig = r.pubkey()
	out.Owner = r.pubkey()
	out.TokenMint0 = r.pubkey()
	out.TokenMint1 = r.pubkey()
	out.TokenVault0 = r.pubkey()
	out.TokenVault1 = r.pubkey()
	out.ObservationKey = r.pubkey()
	out.MintDecimals0 = r.u8()
	out.MintDecimals1 = r.u8()
	out.TickSpacing = r.u16()
	out.Liquidity = r.u128()
	out.SqrtPriceX64 = r.u128()
	out.TickCurrent = r.i32()
	r.skip(2 + 2) // observation index, observation update duration
	out.FeeGrowth0X64 = r.u128()
	out.FeeGrowth1X64 = r.u128()
	r.skip(8 + 8)      // protocol fees
	r.skip(16 * 4)     // cumulative swap amounts
	r.skip(1 + 7)      // status, padding
	for i := range out.RewardInfos {
		info := &out.RewardInfos[i]
		info.State = r.u8()
		info.OpenTime = r.u64()
		info.EndTime = r.u64()
		info.LastUpdateTime = r.u64()
		info.EmissionsPerSecondX64 = r.u128()
		info.TotalEmissioned = r.u64()
		info.Claimed = r.u64()
		info.TokenMint = r.pubkey()
		info.TokenVault = r.pubkey()
		info.Authority = r.pubkey()
		info.GrowthGlobalX64 = r.u128()
	}

	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// DecodePosition walks the personal-position account buffer.
func DecodePosition(data []byte) (*PositionState, error) {
	r := reader{data: data, schema: positionAccountName}

	if err := r.discriminator(); err != nil {
		return nil, err
	}

	out := &PositionState{}
	out.Bump = r.u8()
	out.NftMint = r.pubkey()
	out.PoolID = r.pubkey()
	out.TickLowerIndex = r.i32()
	out.TickUpperIndex = r.i32()
	out.Liquidity = r.u128()
	out.FeeGrowth0Last = r.u128()
	out.FeeGrowth1Last = r.u128()
	out.TokenFeesOwed0 = r.u64()
	out.TokenFeesOwed1 = r.u64()
	for i := range out.RewardInfos {
		out.RewardInfos[i].GrowthInsideLastX64 = r.u128()
		out.RewardInfos[i].AmountOwed = r.u64()
	}

	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// reader is a bounds-checked fixed-offset walker. The first failed read
// poisons it; subsequent reads return zero values and the error survives.
type reader struct {
	data   []byte
	offset int
	schema string
	err    error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data) < r.offset+n {
		r.err = fmt.Errorf("%w: %s: need %d bytes at offset %d, have %d",
			ErrDecode, r.schema, n, r.offset, len(r.data))
		return nil
	}
	out := r.data[r.offset : r.offset+n]
	r.offset += n
	return out
}

func (r *reader) discriminator() error {
	want := solanago.AccountDiscriminator(r.schema)
	got := r.take(8)
	if r.err != nil {
		return r.err
	}
	if !bytes.Equal(got, want) {
		r.err = fmt.Errorf("%w: %s: discriminator mismatch", ErrDecode, r.schema)
	}
	return r.err
}

func (r *reader) skip(n int) { r.take(n) }

func (r *reader) u8() uint8 {
	b := r.take(1)
	if r.err != nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) i32() int32 {
	b := r.take(4)
	if r.err != nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) u128() bin.Uint128 {
	b := r.take(16)
	if r.err != nil {
		return bin.Uint128{}
	}
	out, err := u128.FromLEBytes(b)
	if err != nil {
		r.err = fmt.Errorf("%w: %s: %v", ErrDecode, r.schema, err)
		return bin.Uint128{}
	}
	return out
}

func (r *reader) pubkey() solana.PublicKey {
	b := r.take(32)
	if r.err != nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}
