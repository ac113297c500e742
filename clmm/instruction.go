package clmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	solanago "github.com/solatrade/clmm-go/solana"
)

// Account order in every builder matches the deployed program's expectation
// exactly; it is part of the wire contract.

// SwapParams drives BuildSwapInstruction. Vault and token-account sides are
// in trade direction: input first.
type SwapParams struct {
	Payer              solana.PublicKey
	AmmConfig          solana.PublicKey
	Pool               solana.PublicKey
	InputTokenAccount  solana.PublicKey
	OutputTokenAccount solana.PublicKey
	InputVault         solana.PublicKey
	OutputVault        solana.PublicKey
	ObservationState   solana.PublicKey
	TickArrays         []solana.PublicKey

	Amount               uint64
	OtherAmountThreshold uint64
	SqrtPriceLimitX64    bin.Uint128
	IsBaseInput          bool
}

func BuildSwapInstruction(p SwapParams) (solana.Instruction, error) {
	if len(p.TickArrays) == 0 {
		return nil, fmt.Errorf("swap needs at least one tick array")
	}

	limit := p.SqrtPriceLimitX64
	if limit.Lo == 0 && limit.Hi == 0 {
		// No explicit limit: run to one step inside the directional bound.
		if p.IsBaseInput {
			limit = MinSqrtPriceX64
			limit.Lo++
		} else {
			limit = MaxSqrtPriceX64
			limit.Lo--
		}
	}

	data, err := encodeArgs("swap", func(enc *argEncoder) {
		enc.u64(p.Amount)
		enc.u64(p.OtherAmountThreshold)
		enc.u128(limit)
		enc.boolean(p.IsBaseInput)
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(p.Payer, false, true),
		solana.NewAccountMeta(p.AmmConfig, false, false),
		solana.NewAccountMeta(p.Pool, true, false),
		solana.NewAccountMeta(p.InputTokenAccount, true, false),
		solana.NewAccountMeta(p.OutputTokenAccount, true, false),
		solana.NewAccountMeta(p.InputVault, true, false),
		solana.NewAccountMeta(p.OutputVault, true, false),
		solana.NewAccountMeta(p.ObservationState, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
	for _, tickArray := range p.TickArrays {
		accounts = append(accounts, solana.NewAccountMeta(tickArray, true, false))
	}

	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// OpenPositionParams drives BuildOpenPositionInstruction. The NFT mint must
// sign; the metadata account comes from DeriveNftMetadataPDA and the personal
// position, protocol position and tick arrays are the PDAs derived from the
// tick bounds.
type OpenPositionParams struct {
	Payer               solana.PublicKey
	PositionNftOwner    solana.PublicKey
	PositionNftMint     solana.PublicKey
	PositionNftAccount  solana.PublicKey
	MetadataAccount     solana.PublicKey
	Pool                solana.PublicKey
	ProtocolPosition    solana.PublicKey
	TickArrayLower      solana.PublicKey
	TickArrayUpper      solana.PublicKey
	PersonalPosition    solana.PublicKey
	TokenAccount0       solana.PublicKey
	TokenAccount1       solana.PublicKey
	TokenVault0         solana.PublicKey
	TokenVault1         solana.PublicKey

	TickLowerIndex           int32
	TickUpperIndex           int32
	TickArrayLowerStartIndex int32
	TickArrayUpperStartIndex int32
	Liquidity                bin.Uint128
	Amount0Max               uint64
	Amount1Max               uint64
}

func BuildOpenPositionInstruction(p OpenPositionParams) (solana.Instruction, error) {
	if p.TickLowerIndex >= p.TickUpperIndex {
		return nil, fmt.Errorf("tick bounds inverted: [%d, %d)", p.TickLowerIndex, p.TickUpperIndex)
	}

	data, err := encodeArgs("open_position", func(enc *argEncoder) {
		enc.i32(p.TickLowerIndex)
		enc.i32(p.TickUpperIndex)
		enc.i32(p.TickArrayLowerStartIndex)
		enc.i32(p.TickArrayUpperStartIndex)
		enc.u128(p.Liquidity)
		enc.u64(p.Amount0Max)
		enc.u64(p.Amount1Max)
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(p.Payer, true, true),
		solana.NewAccountMeta(p.PositionNftOwner, false, false),
		solana.NewAccountMeta(p.PositionNftMint, true, true),
		solana.NewAccountMeta(p.PositionNftAccount, true, false),
		solana.NewAccountMeta(p.MetadataAccount, true, false),
		solana.NewAccountMeta(p.Pool, true, false),
		solana.NewAccountMeta(p.ProtocolPosition, true, false),
		solana.NewAccountMeta(p.TickArrayLower, true, false),
		solana.NewAccountMeta(p.TickArrayUpper, true, false),
		solana.NewAccountMeta(p.PersonalPosition, true, false),
		solana.NewAccountMeta(p.TokenAccount0, true, false),
		solana.NewAccountMeta(p.TokenAccount1, true, false),
		solana.NewAccountMeta(p.TokenVault0, true, false),
		solana.NewAccountMeta(p.TokenVault1, true, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(solana.TokenMetadataProgramID, false, false),
	}

	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// ClosePositionParams drives BuildClosePositionInstruction. Closing burns the
// position NFT; the position must hold zero liquidity first.
type ClosePositionParams struct {
	NftOwner           solana.PublicKey
	PositionNftMint    solana.PublicKey
	PositionNftAccount solana.PublicKey
	PersonalPosition   solana.PublicKey
}

func BuildClosePositionInstruction(p ClosePositionParams) (solana.Instruction, error) {
	data, err := encodeArgs("close_position", nil)
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(p.NftOwner, true, true),
		solana.NewAccountMeta(p.PositionNftMint, true, false),
		solana.NewAccountMeta(p.PositionNftAccount, true, false),
		solana.NewAccountMeta(p.PersonalPosition, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}

	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// LiquidityChangeParams drives the increase/decrease builders. AmountLimit0/1
// are maxima when adding liquidity and minima when removing it; TokenAccount0/1
// are the source accounts when adding and the recipients when removing.
type LiquidityChangeParams struct {
	NftOwner           solana.PublicKey
	PositionNftAccount solana.PublicKey
	Pool               solana.PublicKey
	ProtocolPosition   solana.PublicKey
	PersonalPosition   solana.PublicKey
	TickArrayLower     solana.PublicKey
	TickArrayUpper     solana.PublicKey
	TokenAccount0      solana.PublicKey
	TokenAccount1      solana.PublicKey
	TokenVault0        solana.PublicKey
	TokenVault1        solana.PublicKey

	Liquidity    bin.Uint128
	AmountLimit0 uint64
	AmountLimit1 uint64
}

func BuildIncreaseLiquidityInstruction(p LiquidityChangeParams) (solana.Instruction, error) {
	data, err := encodeArgs("increase_liquidity", func(enc *argEncoder) {
		enc.u128(p.Liquidity)
		enc.u64(p.AmountLimit0)
		enc.u64(p.AmountLimit1)
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, liquidityChangeAccounts(p), data), nil
}

func BuildDecreaseLiquidityInstruction(p LiquidityChangeParams) (solana.Instruction, error) {
	data, err := encodeArgs("decrease_liquidity", func(enc *argEncoder) {
		enc.u128(p.Liquidity)
		enc.u64(p.AmountLimit0)
		enc.u64(p.AmountLimit1)
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, liquidityChangeAccounts(p), data), nil
}

func liquidityChangeAccounts(p LiquidityChangeParams) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(p.NftOwner, false, true),
		solana.NewAccountMeta(p.PositionNftAccount, false, false),
		solana.NewAccountMeta(p.Pool, true, false),
		solana.NewAccountMeta(p.ProtocolPosition, true, false),
		solana.NewAccountMeta(p.PersonalPosition, true, false),
		solana.NewAccountMeta(p.TickArrayLower, true, false),
		solana.NewAccountMeta(p.TickArrayUpper, true, false),
		solana.NewAccountMeta(p.TokenAccount0, true, false),
		solana.NewAccountMeta(p.TokenAccount1, true, false),
		solana.NewAccountMeta(p.TokenVault0, true, false),
		solana.NewAccountMeta(p.TokenVault1, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
}

// argEncoder serializes instruction fields in declared order, little-endian,
// after the 8-byte name discriminator.
type argEncoder struct {
	enc *bin.Encoder
	err error
}

func encodeArgs(name string, fill func(*argEncoder)) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(solanago.InstructionDiscriminator(name)); err != nil {
		return nil, err
	}
	if fill != nil {
		enc := &argEncoder{enc: bin.NewBorshEncoder(buf)}
		fill(enc)
		if enc.err != nil {
			return nil, fmt.Errorf("encode %s args: %w", name, enc.err)
		}
	}
	return buf.Bytes(), nil
}

func (e *argEncoder) u64(v uint64) {
	if e.err == nil {
		e.err = e.enc.WriteUint64(v, binary.LittleEndian)
	}
}

func (e *argEncoder) i32(v int32) {
	if e.err == nil {
		e.err = e.enc.WriteUint32(uint32(v), binary.LittleEndian)
	}
}

func (e *argEncoder) u128(v bin.Uint128) {
	e.u64(v.Lo)
	e.u64(v.Hi)
}

func (e *argEncoder) boolean(v bool) {
	if e.err == nil {
		e.err = e.enc.WriteBool(v)
	}
}
