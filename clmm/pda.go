package clmm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Tick indices inside PDA seeds are big-endian even though account buffers
// store them little-endian. The program defines it that way; both sides of
// the asymmetry are load-bearing.
func tickBytes(tick int32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(tick))
	return out
}

// DerivePositionPDA derives the personal-position record for a position NFT.
func DerivePositionPDA(positionNftMint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{[]byte(positionSeed), positionNftMint.Bytes()}

	pda, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

// DeriveProtocolPositionPDA derives the pool-side position record for a tick
// range.
func DeriveProtocolPositionPDA(pool solana.PublicKey, tickLower, tickUpper int32) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(positionSeed),
		pool.Bytes(),
		tickBytes(tickLower),
		tickBytes(tickUpper),
	}

	pda, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

// DeriveNftMetadataPDA derives the Metaplex metadata record for a position
// NFT mint. Opening a position creates it alongside the mint.
func DeriveNftMetadataPDA(nftMint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(metadataSeed),
		solana.TokenMetadataProgramID.Bytes(),
		nftMint.Bytes(),
	}

	pda, _, err := solana.FindProgramAddress(seeds, solana.TokenMetadataProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

// DeriveTickArrayPDA derives the tick-array record starting at startIndex.
func DeriveTickArrayPDA(pool solana.PublicKey, startIndex int32) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(tickArraySeed),
		pool.Bytes(),
		tickBytes(startIndex),
	}

	pda, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

// TickArrayStartIndex returns the start index of the array containing tick,
// flooring toward negative infinity.
func TickArrayStartIndex(tick int32, tickSpacing uint16) int32 {
	span := int32(tickSpacing) * TicksPerArray
	start := tick / span
	if tick < 0 && tick%span != 0 {
		start--
	}
	return start * span
}
