// Package u128 holds helpers for the 128-bit little-endian integers the CLMM
// program stores liquidity and sqrt-price values in.
package u128

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
)

type Uint128 bin.Uint128

func (u *Uint128) Scan(s fmt.ScanState, ch rune) error {
	i := new(big.Int)
	if err := i.Scan(s, ch); err != nil {
		return err
	} else if i.Sign() < 0 {
		return errors.New("value cannot be negative")
	} else if i.BitLen() > 128 {
		return errors.New("value overflows Uint128")
	}
	u.Lo = i.Uint64()
	u.Hi = i.Rsh(i, 64).Uint64()
	return nil
}

// FromString parses a decimal string. Panics on malformed input; callers pass
// literals.
func FromString(num string) bin.Uint128 {
	out := bin.NewUint128LittleEndian()
	if _, err := fmt.Sscan(num, (*Uint128)(out)); err != nil {
		panic(err)
	}
	return *out
}

// FromLEBytes reads exactly 16 little-endian bytes.
func FromLEBytes(b []byte) (bin.Uint128, error) {
	if len(b) != 16 {
		return bin.Uint128{}, fmt.Errorf("uint128 needs 16 bytes, got %d", len(b))
	}
	return bin.Uint128{
		Lo: binary.LittleEndian.Uint64(b[:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

// FromBigInt converts a non-negative big integer that fits in 128 bits.
func FromBigInt(i *big.Int) (bin.Uint128, error) {
	if i.Sign() < 0 {
		return bin.Uint128{}, errors.New("value cannot be negative")
	}
	if i.BitLen() > 128 {
		return bin.Uint128{}, errors.New("value overflows Uint128")
	}
	lo := new(big.Int).Set(i)
	return bin.Uint128{
		Lo: lo.Uint64(),
		Hi: lo.Rsh(lo, 64).Uint64(),
	}, nil
}
